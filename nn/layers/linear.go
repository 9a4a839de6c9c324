package layers

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"digitrec/tensor"
)

// Linear is a fully-connected layer with a fused activation. Weights are kept
// in one row-major (outDim × inDim) tensor; row j belongs to neuron j.
type Linear struct {
	W, B *tensor.Tensor
	Act  ActivationKind
}

// NewLinear(inDim→outDim, act) allocates zeroed weights and biases.
func NewLinear(inDim, outDim int, act ActivationKind) (*Linear, error) {
	if inDim <= 0 || outDim <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "linear %d→%d", inDim, outDim)
	}
	if !act.Valid() {
		return nil, errors.Wrapf(ErrUnknownActivation, "kind %d", int(act))
	}
	return &Linear{
		W:   tensor.New(outDim, inDim),
		B:   tensor.New(outDim),
		Act: act,
	}, nil
}

// In is the input width shared by every neuron.
func (l *Linear) In() int { return l.W.Shape[1] }

// Out is the number of neurons.
func (l *Linear) Out() int { return l.W.Shape[0] }

// ParamCount is the number of values the layer consumes from a weight
// source: one weight per input plus one bias, per neuron.
func (l *Linear) ParamCount() int { return l.W.Size() + l.B.Size() }

// RandomInit draws every weight from U[-r, r] and zeroes the biases.
func (l *Linear) RandomInit(src rand.Source) {
	fillUniform(l.W.Data, l.Act.initRange(l.In()), src)
	for i := range l.B.Data {
		l.B.Data[i] = 0
	}
}

// Neuron returns a view of neuron j. Its Weights alias the layer's row.
func (l *Linear) Neuron(j int) Neuron {
	return Neuron{
		Weights:    l.W.Row(j),
		Bias:       l.B.At(j),
		Activation: l.Act,
	}
}

// Forward returns act(W·x + b), one value per neuron in neuron order.
func (l *Linear) Forward(x []float64) ([]float64, error) {
	inDim, outDim := l.In(), l.Out()
	if len(x) != inDim {
		return nil, errors.Wrapf(ErrPrecondition, "linear layer expects %d inputs, got %d", inDim, len(x))
	}
	w := mat.NewDense(outDim, inDim, l.W.Data)
	z := mat.NewVecDense(outDim, nil)
	z.MulVec(w, mat.NewVecDense(inDim, x))

	y := make([]float64, outDim)
	for j := range y {
		y[j] = l.Act.Apply(l.B.Data[j] + z.AtVec(j))
	}
	return y, nil
}

// Load copies weights then bias for each neuron from values, in neuron
// order, and returns the number of values consumed. The caller guarantees
// len(values) >= ParamCount().
func (l *Linear) Load(values []float64) int {
	inDim := l.In()
	off := 0
	for j := 0; j < l.Out(); j++ {
		copy(l.W.Row(j), values[off:off+inDim])
		l.B.Data[j] = values[off+inDim]
		off += inDim + 1
	}
	return off
}

// AppendParams appends the layer's values to dst in the same order Load
// consumes them.
func (l *Linear) AppendParams(dst []float64) []float64 {
	for j := 0; j < l.Out(); j++ {
		dst = append(dst, l.W.Row(j)...)
		dst = append(dst, l.B.Data[j])
	}
	return dst
}
