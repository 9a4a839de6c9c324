package nn

import (
	"math"

	"github.com/pkg/errors"
)

// minProb keeps CrossEntropy finite when the true class has probability 0.
const minProb = 1e-12

// CrossEntropy returns -log(probs[label]) for a softmax output and the index
// of the true class.
func CrossEntropy(probs []float64, label int) (float64, error) {
	if label < 0 || label >= len(probs) {
		return 0, errors.Wrapf(ErrPrecondition, "label %d outside %d classes", label, len(probs))
	}
	return -math.Log(math.Max(probs[label], minProb)), nil
}
