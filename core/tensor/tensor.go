package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
)

// Tensor is a dense three-dimensional array of float64. For TRF weights the
// axes are input feature × lag × output feature.
//
// Fields are exported for gob encoding. Data is stored row-major, so the
// element (i, j, k) lives at Data[(i*Dim[1]+j)*Dim[2]+k].
type Tensor struct {
	Dim  [3]int
	Data []float64
}

// NewTensor creates a tensor of the given shape backed by data. A nil data
// slice allocates zeros.
func NewTensor(data []float64, shape ...int) (*Tensor, error) {
	if len(shape) != 3 {
		return nil, errors.NewValueError("NewTensor", "shape must have exactly three dimensions")
	}

	size := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, errors.NewValueError("NewTensor", "all dimensions must be positive")
		}
		size *= s
	}

	if data == nil {
		data = make([]float64, size)
	}
	if len(data) != size {
		return nil, errors.NewDimensionError("NewTensor", size, len(data), 0)
	}

	return &Tensor{
		Dim:  [3]int{shape[0], shape[1], shape[2]},
		Data: data,
	}, nil
}

// NewZeros creates a zero tensor of the given shape.
func NewZeros(d0, d1, d2 int) (*Tensor, error) {
	return NewTensor(nil, d0, d1, d2)
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return []int{t.Dim[0], t.Dim[1], t.Dim[2]}
}

func (t *Tensor) index(i, j, k int) int {
	if i < 0 || i >= t.Dim[0] || j < 0 || j >= t.Dim[1] || k < 0 || k >= t.Dim[2] {
		panic("tensor: index out of range")
	}
	return (i*t.Dim[1]+j)*t.Dim[2] + k
}

// At returns the element at (i, j, k).
func (t *Tensor) At(i, j, k int) float64 {
	return t.Data[t.index(i, j, k)]
}

// Set stores v at (i, j, k).
func (t *Tensor) Set(i, j, k int, v float64) {
	t.Data[t.index(i, j, k)] = v
}

// Copy returns a deep copy.
func (t *Tensor) Copy() *Tensor {
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return &Tensor{Dim: t.Dim, Data: data}
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.Dim == o.Dim
}

// Add adds o to t elementwise in place.
func (t *Tensor) Add(o *Tensor) error {
	if !t.SameShape(o) {
		return errors.NewShapeErrorf("Tensor.Add", "shape %v does not match %v", o.Shape(), t.Shape())
	}
	for i, v := range o.Data {
		t.Data[i] += v
	}
	return nil
}

// Scale multiplies every element by f in place.
func (t *Tensor) Scale(f float64) {
	for i := range t.Data {
		t.Data[i] *= f
	}
}

// Select returns a new tensor keeping only the given indices along axis.
func (t *Tensor) Select(axis int, indices []int) (*Tensor, error) {
	if axis < 0 || axis > 2 {
		return nil, errors.NewValueError("Tensor.Select", "axis must be 0, 1 or 2")
	}
	if len(indices) == 0 {
		return nil, errors.NewValueError("Tensor.Select", "no indices selected")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= t.Dim[axis] {
			return nil, errors.Newf("tensor: index %d out of range for axis %d of length %d", idx, axis, t.Dim[axis])
		}
	}

	dim := t.Dim
	dim[axis] = len(indices)
	out := &Tensor{Dim: dim, Data: make([]float64, dim[0]*dim[1]*dim[2])}
	for i := 0; i < dim[0]; i++ {
		for j := 0; j < dim[1]; j++ {
			for k := 0; k < dim[2]; k++ {
				src := [3]int{i, j, k}
				src[axis] = indices[src[axis]]
				out.Set(i, j, k, t.At(src[0], src[1], src[2]))
			}
		}
	}
	return out, nil
}

// FromColumnMajor unflattens rows [rowOffset, rowOffset+d0*d1) of m into a
// d0 × d1 × c tensor, where c is the column count of m. The flat row index r
// maps to (r mod d0, r div d0): the first axis varies fastest. This is the
// layout produced by a lag matrix whose columns are grouped lag by lag with
// all features of one lag adjacent.
func FromColumnMajor(m mat.Matrix, rowOffset, d0, d1 int) (*Tensor, error) {
	r, c := m.Dims()
	if rowOffset < 0 || rowOffset+d0*d1 > r {
		return nil, errors.NewDimensionError("FromColumnMajor", rowOffset+d0*d1, r, 0)
	}
	t, err := NewZeros(d0, d1, c)
	if err != nil {
		return nil, err
	}
	for flat := 0; flat < d0*d1; flat++ {
		i, j := flat%d0, flat/d0
		for k := 0; k < c; k++ {
			t.Set(i, j, k, m.At(rowOffset+flat, k))
		}
	}
	return t, nil
}

// ColumnMajor flattens the first two axes back into rows, first axis
// fastest. It is the inverse of FromColumnMajor with rowOffset 0.
func (t *Tensor) ColumnMajor() *mat.Dense {
	d0, d1, d2 := t.Dim[0], t.Dim[1], t.Dim[2]
	out := mat.NewDense(d0*d1, d2, nil)
	for j := 0; j < d1; j++ {
		for i := 0; i < d0; i++ {
			for k := 0; k < d2; k++ {
				out.Set(j*d0+i, k, t.At(i, j, k))
			}
		}
	}
	return out
}

// Slice2 returns the d1 × d2 matrix at index i of the first axis.
func (t *Tensor) Slice2(i int) *mat.Dense {
	out := mat.NewDense(t.Dim[1], t.Dim[2], nil)
	for j := 0; j < t.Dim[1]; j++ {
		for k := 0; k < t.Dim[2]; k++ {
			out.Set(j, k, t.At(i, j, k))
		}
	}
	return out
}
