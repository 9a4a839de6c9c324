package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchitecture(t *testing.T) {
	arch, err := ParseArchitecture(" 256  128 ")
	require.NoError(t, err)
	assert.Equal(t, []int{256, 128}, arch)

	_, err = ParseArchitecture("256 x")
	require.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected error for missing weights path")
	}
	cfg.WeightsPath = "weights.csv"
	require.NoError(t, ValidateConfig(cfg))

	cfg.Hidden = []int{64, 0}
	require.Error(t, ValidateConfig(cfg))
	cfg.Hidden = nil
	require.Error(t, ValidateConfig(cfg))
}

func TestConfigTopologyAndPolicy(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []int{784, 256, 128, 10}, cfg.Topology())
	assert.Equal(t, ParseLenient, cfg.Policy())
	cfg.Strict = true
	assert.Equal(t, ParseStrict, cfg.Policy())
}
