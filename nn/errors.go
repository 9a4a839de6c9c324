package nn

import (
	"fmt"

	"digitrec/nn/layers"
)

// Errors reported by the network, the binder and the classifier. Each can be
// matched with errors.Is after wrapping.
const (
	ErrIncompatibleWeights   = layers.Error("weight source does not match network topology")
	ErrShapeMismatch         = layers.Error("network output does not match class count")
	ErrUndefinedDistribution = layers.Error("softmax input is empty or not finite")
	ErrPrecondition          = layers.ErrPrecondition
	ErrSourceUnavailable     = layers.Error("weight source unavailable")

	ErrNotBound          = layers.Error("network weights are not bound")
	ErrAlreadyBound      = layers.Error("network weights are already bound")
	ErrUnknownActivation = layers.ErrUnknownActivation
	ErrInvalidTopology   = layers.Error("invalid network topology")
)

// IncompatibleWeightsError carries both counts of a rejected bind.
type IncompatibleWeightsError struct {
	Expected int
	Received int
}

func (e *IncompatibleWeightsError) Error() string {
	return fmt.Sprintf("%s: expected %d values, received %d", ErrIncompatibleWeights, e.Expected, e.Received)
}

// Is makes errors.Is(err, ErrIncompatibleWeights) hold.
func (e *IncompatibleWeightsError) Is(target error) bool {
	return target == ErrIncompatibleWeights
}
