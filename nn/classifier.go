package nn

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Prediction is the classifier's answer for one input.
type Prediction struct {
	Digit         int       `json:"digit"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

// NewPrediction picks the top class of a probability distribution.
func NewPrediction(probs []float64) (Prediction, error) {
	digit, confidence, err := TopPrediction(probs)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Digit: digit, Confidence: confidence, Probabilities: probs}, nil
}

// Softmax maps logits to a probability distribution. The maximum is
// subtracted before exponentiating. Empty input, NaN, +Inf or all -Inf
// logits yield ErrUndefinedDistribution.
func Softmax(logits []float64) ([]float64, error) {
	if len(logits) == 0 {
		return nil, errors.Wrap(ErrUndefinedDistribution, "no logits")
	}
	maxLogit := math.Inf(-1)
	for i, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 1) {
			return nil, errors.Wrapf(ErrUndefinedDistribution, "logit %d is %v", i, v)
		}
		if v > maxLogit {
			maxLogit = v
		}
	}
	if math.IsInf(maxLogit, -1) {
		return nil, errors.Wrap(ErrUndefinedDistribution, "all logits are -Inf")
	}

	expSum := 0.0
	probs := make([]float64, len(logits))
	for i, v := range logits {
		e := math.Exp(v - maxLogit)
		probs[i] = e
		expSum += e
	}
	for i := range probs {
		probs[i] /= expSum
	}
	return probs, nil
}

// TopPrediction returns the index and value of the largest probability.
// Ties go to the lowest index.
func TopPrediction(probs []float64) (int, float64, error) {
	if len(probs) == 0 {
		return 0, 0, errors.Wrap(ErrUndefinedDistribution, "no probabilities")
	}
	best, bestValue := 0, probs[0]
	for i := 1; i < len(probs); i++ {
		if probs[i] > bestValue {
			best, bestValue = i, probs[i]
		}
	}
	return best, bestValue, nil
}

// Ranked is one entry of a TopK listing.
type Ranked struct {
	Digit       int     `json:"digit"`
	Probability float64 `json:"probability"`
}

// TopK returns the k most probable classes, most probable first. Equal
// probabilities keep ascending class order.
func TopK(probs []float64, k int) []Ranked {
	ranked := make([]Ranked, len(probs))
	for i, p := range probs {
		ranked[i] = Ranked{Digit: i, Probability: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
