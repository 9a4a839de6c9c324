package nn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"digitrec/nn/layers"
)

const (
	// InputSize is the flattened 28×28 image the deployed model reads.
	InputSize = 28 * 28
	// Classes is the number of digit classes.
	Classes = 10
)

// DefaultHidden is the hidden-layer sizing of the deployed model.
var DefaultHidden = []int{256, 128}

// LayerSpec describes one fully-connected layer: its neuron count and the
// activation shared by those neurons.
type LayerSpec struct {
	Neurons    int
	Activation layers.ActivationKind
}

// DigitTopology returns ReLU hidden layers of the given sizes followed by a
// linear output layer with one neuron per digit class.
func DigitTopology(hidden []int) []LayerSpec {
	specs := make([]LayerSpec, 0, len(hidden)+1)
	for _, h := range hidden {
		specs = append(specs, LayerSpec{Neurons: h, Activation: layers.ReLU})
	}
	return append(specs, LayerSpec{Neurons: Classes, Activation: layers.Identity})
}

// Network is an ordered stack of fully-connected layers. Its shape is fixed
// at construction; weights are written once by BindWeights and only read
// afterwards, so a bound Network may serve concurrent Forward calls.
type Network struct {
	inputDim int
	layers   []*layers.Linear
	bound    bool
	random   bool
}

type options struct {
	classes int
	src     rand.Source
	random  bool
}

// Option configures NewNetwork.
type Option func(*options)

// WithClasses requires the last layer to have exactly k neurons.
func WithClasses(k int) Option {
	return func(o *options) { o.classes = k }
}

// WithRandomInit initialises weights uniformly instead of leaving them zero
// and marks the network usable without a bind. Intended for structure tests.
func WithRandomInit(src rand.Source) Option {
	return func(o *options) {
		o.random = true
		o.src = src
	}
}

// NewNetwork builds layers for specs on top of an input of width inputDim.
func NewNetwork(inputDim int, specs []LayerSpec, opts ...Option) (*Network, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if inputDim <= 0 {
		return nil, errors.Wrapf(ErrInvalidTopology, "input width %d", inputDim)
	}
	if len(specs) == 0 {
		return nil, errors.Wrap(ErrInvalidTopology, "no layers")
	}
	if o.classes > 0 && specs[len(specs)-1].Neurons != o.classes {
		return nil, errors.Wrapf(ErrInvalidTopology, "output layer has %d neurons, want %d classes",
			specs[len(specs)-1].Neurons, o.classes)
	}

	net := &Network{inputDim: inputDim, random: o.random}
	prev := inputDim
	for i, spec := range specs {
		if spec.Neurons <= 0 {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d has %d neurons", i, spec.Neurons)
		}
		l, err := layers.NewLinear(prev, spec.Neurons, spec.Activation)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		if o.random {
			l.RandomInit(o.src)
		}
		net.layers = append(net.layers, l)
		prev = spec.Neurons
	}
	return net, nil
}

// NewDigitNetwork builds the InputSize → hidden… → Classes digit classifier.
func NewDigitNetwork(hidden []int, opts ...Option) (*Network, error) {
	opts = append([]Option{WithClasses(Classes)}, opts...)
	return NewNetwork(InputSize, DigitTopology(hidden), opts...)
}

// InputDim is the width Forward expects.
func (n *Network) InputDim() int { return n.inputDim }

// OutputDim is the width of the last layer.
func (n *Network) OutputDim() int { return n.layers[len(n.layers)-1].Out() }

// Layers returns the layer stack. Callers must not modify weights of a
// network that is serving predictions.
func (n *Network) Layers() []*layers.Linear { return n.layers }

// Topology returns the widths input, layer 1, ..., output.
func (n *Network) Topology() []int {
	widths := []int{n.inputDim}
	for _, l := range n.layers {
		widths = append(widths, l.Out())
	}
	return widths
}

// ParamCount is the exact number of values a weight source must supply.
func (n *Network) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		total += l.ParamCount()
	}
	return total
}

// Bound reports whether weights have been bound from an external source.
func (n *Network) Bound() bool { return n.bound }

// Ready reports whether Forward may run: the network is bound or was built
// with WithRandomInit.
func (n *Network) Ready() bool { return n.bound || n.random }

// Forward feeds x through every layer and returns the last layer's raw output.
func (n *Network) Forward(x []float64) ([]float64, error) {
	if !n.Ready() {
		return nil, ErrNotBound
	}
	if len(x) != n.inputDim {
		return nil, errors.Wrapf(ErrPrecondition, "network expects %d inputs, got %d", n.inputDim, len(x))
	}
	out := x
	for i, l := range n.layers {
		var err error
		out, err = l.Forward(out)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return out, nil
}

// Predict returns the softmax distribution over the network's output.
func (n *Network) Predict(x []float64) ([]float64, error) {
	logits, err := n.Forward(x)
	if err != nil {
		return nil, err
	}
	if len(logits) != n.OutputDim() {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d outputs, want %d", len(logits), n.OutputDim())
	}
	return Softmax(logits)
}

// Classify runs Predict and picks the most probable class.
func (n *Network) Classify(x []float64) (Prediction, error) {
	probs, err := n.Predict(x)
	if err != nil {
		return Prediction{}, err
	}
	return NewPrediction(probs)
}
