package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"digitrec/nn"
)

// Config holds the settings needed to build and bind the digit classifier.
type Config struct {
	Hidden      []int
	WeightsPath string
	Strict      bool
}

// DefaultConfig returns the deployed 256-128 hidden sizing.
func DefaultConfig() *Config {
	return &Config{Hidden: append([]int(nil), nn.DefaultHidden...)}
}

// ParseArchitecture parses architecture string into slice of integers
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "architecture entry %d", i)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates the inference configuration
func ValidateConfig(config *Config) error {
	if len(config.Hidden) == 0 {
		return errors.New("at least one hidden layer is required")
	}
	for i, h := range config.Hidden {
		if h <= 0 {
			return errors.Errorf("hidden layer %d has %d neurons", i, h)
		}
	}
	if config.WeightsPath == "" {
		return errors.New("weights path must be set")
	}
	return nil
}

// Policy maps Strict to a ParsePolicy.
func (c *Config) Policy() ParsePolicy {
	if c.Strict {
		return ParseStrict
	}
	return ParseLenient
}

// Topology returns input, hidden and output widths.
func (c *Config) Topology() []int {
	widths := append([]int{nn.InputSize}, c.Hidden...)
	return append(widths, nn.Classes)
}
