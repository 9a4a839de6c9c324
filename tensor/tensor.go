package tensor

import "fmt"

// Tensor is a simple n-D array backed by a flat []float64.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a zeroed Tensor of given shape (product of dims = len(Data)).
func New(shape ...int) *Tensor {
	total := 1
	for _, d := range shape {
		total *= d
	}
	return &Tensor{
		Data:  make([]float64, total),
		Shape: append([]int(nil), shape...),
	}
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Row returns row i of a 2-D tensor. The slice aliases t.Data.
func (t *Tensor) Row(i int) []float64 {
	if len(t.Shape) != 2 {
		panic(fmt.Sprintf("Row: requires a 2-D tensor, got shape %v", t.Shape))
	}
	if i < 0 || i >= t.Shape[0] {
		panic(fmt.Sprintf("Row: index %d out of bounds (shape: %v)", i, t.Shape))
	}
	cols := t.Shape[1]
	return t.Data[i*cols : (i+1)*cols : (i+1)*cols]
}

// At returns the element at the given indices.
// For a 2D tensor [rows, cols], At(i, j) returns the element at row i, column j.
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("At: expected %d indices, got %d", len(t.Shape), len(indices)))
	}
	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("At: index %d out of bounds for dimension %d (shape: %v)", indices[i], i, t.Shape))
		}
		idx += indices[i] * stride
		stride *= t.Shape[i]
	}
	return t.Data[idx]
}
