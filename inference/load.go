package inference

import (
	"github.com/pkg/errors"

	"digitrec/nn"
	"digitrec/utils"
)

// LoadNetwork builds the digit network described by cfg and binds the
// weights found at cfg.WeightsPath.
func LoadNetwork(cfg *utils.Config) (*nn.Network, utils.ParseReport, error) {
	if cfg.WeightsPath == "" {
		return nil, utils.ParseReport{}, errors.Wrap(nn.ErrSourceUnavailable, "no weights path")
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		return nil, utils.ParseReport{}, errors.Wrap(nn.ErrInvalidTopology, err.Error())
	}
	net, err := nn.NewDigitNetwork(cfg.Hidden)
	if err != nil {
		return nil, utils.ParseReport{}, err
	}
	weights, report, err := utils.LoadWeights(cfg.WeightsPath, cfg.Policy())
	if err != nil {
		return nil, report, err
	}
	if err := weights.Bind(net); err != nil {
		return nil, report, errors.Wrap(err, cfg.WeightsPath)
	}
	return net, report, nil
}
