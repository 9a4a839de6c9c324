package nn

// BindWeights copies a flat weight source into the network: for every layer
// in order, for every neuron in order, its weights then its bias. The length
// is checked before anything is written, so a rejected source leaves the
// network untouched. A network can be bound once.
func (n *Network) BindWeights(values []float64) error {
	if n.bound {
		return ErrAlreadyBound
	}
	expected := n.ParamCount()
	if len(values) != expected {
		return &IncompatibleWeightsError{Expected: expected, Received: len(values)}
	}
	off := 0
	for _, l := range n.layers {
		off += l.Load(values[off:])
	}
	n.bound = true
	return nil
}

// Params returns a copy of the network's values in binding order.
func (n *Network) Params() []float64 {
	out := make([]float64, 0, n.ParamCount())
	for _, l := range n.layers {
		out = l.AppendParams(out)
	}
	return out
}
