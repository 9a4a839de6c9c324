package layers

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Neuron is a single output unit: a weight vector, a bias and an activation.
// Neurons returned by Linear.Neuron share their weight slice with the layer.
type Neuron struct {
	Weights    []float64
	Bias       float64
	Activation ActivationKind
}

// NewNeuron returns a neuron with inputSize weights drawn uniformly from
// [-r, r] and a zero bias. src may be nil to use the global source.
func NewNeuron(inputSize int, act ActivationKind, src rand.Source) (*Neuron, error) {
	if inputSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "neuron input size %d", inputSize)
	}
	if !act.Valid() {
		return nil, errors.Wrapf(ErrUnknownActivation, "kind %d", int(act))
	}
	n := &Neuron{
		Weights:    make([]float64, inputSize),
		Activation: act,
	}
	fillUniform(n.Weights, act.initRange(inputSize), src)
	return n, nil
}

// NetInput returns bias + Σ weights[i]*inputs[i].
func (n *Neuron) NetInput(inputs []float64) (float64, error) {
	if len(inputs) != len(n.Weights) {
		return 0, errors.Wrapf(ErrPrecondition, "neuron has %d weights, got %d inputs", len(n.Weights), len(inputs))
	}
	return n.Bias + floats.Dot(n.Weights, inputs), nil
}

// Activate returns the activated net input.
func (n *Neuron) Activate(inputs []float64) (float64, error) {
	z, err := n.NetInput(inputs)
	if err != nil {
		return 0, err
	}
	return n.Activation.Apply(z), nil
}

func fillUniform(dst []float64, r float64, src rand.Source) {
	dist := distuv.Uniform{
		Min: -r,
		Max: r,
		Src: src,
	}
	for i := range dst {
		dst[i] = dist.Rand()
	}
}
