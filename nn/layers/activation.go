package layers

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ActivationKind selects the nonlinearity applied to a neuron's net input.
// The zero value is not a valid kind.
type ActivationKind int

const (
	ReLU ActivationKind = iota + 1
	Sigmoid
	Identity
)

// SupportedActivations maps the names accepted by ParseActivation to kinds.
var SupportedActivations = map[string]ActivationKind{
	"relu":     ReLU,
	"sigmoid":  Sigmoid,
	"linear":   Identity,
	"identity": Identity,
}

// ParseActivation resolves a case-insensitive activation name.
func ParseActivation(name string) (ActivationKind, error) {
	kind, ok := SupportedActivations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownActivation, "%q", name)
	}
	return kind, nil
}

// Valid reports whether k is one of ReLU, Sigmoid or Identity.
func (k ActivationKind) Valid() bool {
	switch k {
	case ReLU, Sigmoid, Identity:
		return true
	}
	return false
}

func (k ActivationKind) String() string {
	switch k {
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Identity:
		return "linear"
	}
	return "invalid"
}

// Apply evaluates the activation at z. Kinds are validated when layers are
// built, so an invalid kind here is a programming error.
func (k ActivationKind) Apply(z float64) float64 {
	switch k {
	case ReLU:
		return math.Max(0, z)
	case Sigmoid:
		return 1.0 / (1.0 + math.Exp(-z))
	case Identity:
		return z
	}
	panic(errors.Wrapf(ErrUnknownActivation, "kind %d", int(k)))
}

// initRange is the half-width r of the uniform [-r, r] weight initialisation:
// sqrt(2/in) for ReLU, sqrt(1/in) otherwise.
func (k ActivationKind) initRange(inputSize int) float64 {
	if k == ReLU {
		return math.Sqrt(2.0 / float64(inputSize))
	}
	return math.Sqrt(1.0 / float64(inputSize))
}
