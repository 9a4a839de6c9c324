package layers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func seq(n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(float64(i+1)) * scale
	}
	return out
}

func TestNewLinearRejectsBadShape(t *testing.T) {
	_, err := NewLinear(0, 3, ReLU)
	require.True(t, errors.Is(err, ErrInvalidShape))
	_, err = NewLinear(3, -1, ReLU)
	require.True(t, errors.Is(err, ErrInvalidShape))
	_, err = NewLinear(3, 2, ActivationKind(42))
	require.True(t, errors.Is(err, ErrUnknownActivation))
}

func TestLinearForwardMatchesNeurons(t *testing.T) {
	for _, act := range []ActivationKind{ReLU, Sigmoid, Identity} {
		l, err := NewLinear(5, 4, act)
		require.NoError(t, err)
		l.Load(seq(l.ParamCount(), 0.7))

		x := []float64{0.5, -1, 2, 0, 0.25}
		y, err := l.Forward(x)
		require.NoError(t, err)
		require.Len(t, y, 4)

		want := make([]float64, 4)
		for j := range want {
			n := l.Neuron(j)
			want[j], err = n.Activate(x)
			require.NoError(t, err)
		}
		for j := range want {
			assert.InDelta(t, want[j], y[j], 1e-12, "%v neuron %d", act, j)
		}
	}
}

func TestLinearForwardPrecondition(t *testing.T) {
	l, err := NewLinear(3, 2, Identity)
	require.NoError(t, err)
	_, err = l.Forward([]float64{1, 2})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestNeuronPrecondition(t *testing.T) {
	n := Neuron{Weights: []float64{1, 2, 3}, Activation: Identity}
	_, err := n.NetInput([]float64{1})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestNeuronNetInput(t *testing.T) {
	n := Neuron{Weights: []float64{1, -2, 0.5}, Bias: 0.25, Activation: ReLU}
	z, err := n.NetInput([]float64{2, 1, 4})
	require.NoError(t, err)
	if z != 2.25 {
		t.Fatalf("NetInput = %v, want 2.25", z)
	}
	a, err := n.Activate([]float64{-2, 1, 0})
	require.NoError(t, err)
	if a != 0 {
		t.Fatalf("relu of negative net input = %v, want 0", a)
	}
}

func TestLoadOrderAndAppendParams(t *testing.T) {
	l, err := NewLinear(2, 3, Identity)
	require.NoError(t, err)
	values := []float64{1, 2, 10, 3, 4, 20, 5, 6, 30}
	n := l.Load(values)
	require.Equal(t, 9, n)

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, l.W.Data)
	assert.Equal(t, []float64{10, 20, 30}, l.B.Data)
	assert.Equal(t, values, l.AppendParams(nil))

	nr := l.Neuron(1)
	assert.Equal(t, []float64{3, 4}, nr.Weights)
	assert.Equal(t, 20.0, nr.Bias)
}

func TestRandomInitRange(t *testing.T) {
	src := rand.NewSource(7)
	for _, act := range []ActivationKind{ReLU, Sigmoid} {
		l, err := NewLinear(50, 20, act)
		require.NoError(t, err)
		l.B.Data[0] = 3
		l.RandomInit(src)

		r := act.initRange(50)
		nonZero := 0
		for _, w := range l.W.Data {
			if w < -r || w > r {
				t.Fatalf("%v weight %v outside [-%v, %v]", act, w, r, r)
			}
			if w != 0 {
				nonZero++
			}
		}
		assert.Greater(t, nonZero, 0)
		for _, b := range l.B.Data {
			assert.Equal(t, 0.0, b)
		}
	}
}

func TestNewNeuron(t *testing.T) {
	n, err := NewNeuron(8, ReLU, rand.NewSource(1))
	require.NoError(t, err)
	require.Len(t, n.Weights, 8)
	assert.Equal(t, 0.0, n.Bias)
	r := math.Sqrt(2.0 / 8)
	for _, w := range n.Weights {
		assert.True(t, w >= -r && w <= r)
	}

	_, err = NewNeuron(0, ReLU, nil)
	assert.True(t, errors.Is(err, ErrInvalidShape))
	_, err = NewNeuron(3, 0, nil)
	assert.True(t, errors.Is(err, ErrUnknownActivation))
}
