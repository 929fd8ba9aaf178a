package holodetect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShapeMismatch is returned when a tensor's data length does not match
// the number of elements described by its shape
var ErrShapeMismatch = errors.New("tensor data length does not match shape")

// Tensor is a dense, row major float32 tensor held in host memory
type Tensor struct {
	// Shape are the dimensions of the tensor, eg: [1, 84, 8400]
	Shape []int
	// Data is the tensor contents in row major order
	Data []float32
	// strides are precalculated offsets per dimension
	strides []int
}

// NewTensor returns a tensor of the given shape backed by data.  If data is
// nil a zeroed buffer is allocated
func NewTensor(shape []int, data []float32) (*Tensor, error) {

	n := elements(shape)

	if data == nil {
		data = make([]float32, n)
	}

	if len(data) != n {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d",
			ErrShapeMismatch, shape, n, len(data))
	}

	t := &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  data,
	}
	t.calcStrides()

	return t, nil
}

// elements returns the total number of elements for the given shape
func elements(shape []int) int {

	if len(shape) == 0 {
		return 0
	}

	n := 1

	for _, d := range shape {
		if d < 0 {
			return 0
		}
		n *= d
	}

	return n
}

// calcStrides precalculates the offset multiplier of each dimension
func (t *Tensor) calcStrides() {

	t.strides = make([]int, len(t.Shape))
	acc := 1

	for i := len(t.Shape) - 1; i >= 0; i-- {
		t.strides[i] = acc
		acc *= t.Shape[i]
	}
}

// Rank returns the number of dimensions
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Dim returns the size of dimension i or zero if it does not exist
func (t *Tensor) Dim(i int) int {
	if i < 0 || i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}

// Len returns the number of elements in the tensor
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Valid reports whether the tensor has a shape and its data length matches
// the number of elements of that shape
func (t *Tensor) Valid() bool {

	if t == nil || len(t.Shape) == 0 {
		return false
	}

	for _, d := range t.Shape {
		if d < 0 {
			return false
		}
	}

	return elements(t.Shape) == len(t.Data)
}

// At returns the element at the given index.  The number of indices must
// match the tensor rank
func (t *Tensor) At(idx ...int) float32 {

	if t.strides == nil {
		t.calcStrides()
	}

	off := 0

	for i, v := range idx {
		off += v * t.strides[i]
	}

	return t.Data[off]
}

// Set writes the value at the given index
func (t *Tensor) Set(v float32, idx ...int) {

	if t.strides == nil {
		t.calcStrides()
	}

	off := 0

	for i, n := range idx {
		off += n * t.strides[i]
	}

	t.Data[off] = v
}

// String returns a short description of the tensor
func (t *Tensor) String() string {

	dims := make([]string, len(t.Shape))

	for i, d := range t.Shape {
		dims[i] = fmt.Sprintf("%d", d)
	}

	return fmt.Sprintf("Tensor[%s]", strings.Join(dims, "x"))
}
