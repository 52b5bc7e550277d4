package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewTensorValidation(t *testing.T) {
	_, err := NewTensor(nil, 2, 3)
	assert.Error(t, err)

	_, err = NewTensor(nil, 2, 0, 3)
	assert.Error(t, err)

	_, err = NewTensor(make([]float64, 5), 2, 1, 3)
	assert.Error(t, err)

	tt, err := NewTensor(nil, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, tt.Shape())
	assert.Len(t, tt.Data, 24)
}

// Rows of the flat matrix are ordered lag by lag with features adjacent:
// row = lag*nFeatures + feature.
func TestFromColumnMajorFeatureFastest(t *testing.T) {
	const nFeatures, nLags, nOut = 2, 3, 2
	flat := mat.NewDense(1+nFeatures*nLags, nOut, nil)
	for k := 0; k < nOut; k++ {
		flat.Set(0, k, -1) // bias row, skipped by the offset
	}
	for lag := 0; lag < nLags; lag++ {
		for f := 0; f < nFeatures; f++ {
			for k := 0; k < nOut; k++ {
				flat.Set(1+lag*nFeatures+f, k, float64(100*f+10*lag+k))
			}
		}
	}

	w, err := FromColumnMajor(flat, 1, nFeatures, nLags)
	require.NoError(t, err)
	assert.Equal(t, []int{nFeatures, nLags, nOut}, w.Shape())

	for f := 0; f < nFeatures; f++ {
		for lag := 0; lag < nLags; lag++ {
			for k := 0; k < nOut; k++ {
				assert.Equal(t, float64(100*f+10*lag+k), w.At(f, lag, k))
			}
		}
	}
}

func TestColumnMajorRoundTrip(t *testing.T) {
	w, err := NewZeros(3, 4, 2)
	require.NoError(t, err)
	for i := range w.Data {
		w.Data[i] = float64(i) * 0.5
	}

	flat := w.ColumnMajor()
	r, c := flat.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 2, c)
	// element (feature 1, lag 2, out 1) sits at row 2*3+1
	assert.Equal(t, w.At(1, 2, 1), flat.At(7, 1))

	back, err := FromColumnMajor(flat, 0, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, w.Data, back.Data)
}

func TestFromColumnMajorBounds(t *testing.T) {
	_, err := FromColumnMajor(mat.NewDense(4, 1, nil), 1, 2, 2)
	assert.Error(t, err)
}

func TestCopyIsIndependent(t *testing.T) {
	w, _ := NewZeros(1, 2, 1)
	c := w.Copy()
	c.Set(0, 1, 0, 5)
	assert.Equal(t, 0.0, w.At(0, 1, 0))
	assert.Equal(t, 5.0, c.At(0, 1, 0))
}

func TestAddAndScale(t *testing.T) {
	a, _ := NewTensor([]float64{1, 2, 3, 4}, 1, 2, 2)
	b, _ := NewTensor([]float64{10, 20, 30, 40}, 1, 2, 2)
	require.NoError(t, a.Add(b))
	assert.Equal(t, []float64{11, 22, 33, 44}, a.Data)

	a.Scale(0.5)
	assert.Equal(t, []float64{5.5, 11, 16.5, 22}, a.Data)

	other, _ := NewZeros(2, 2, 1)
	assert.Error(t, a.Add(other))
}

func TestSelect(t *testing.T) {
	w, _ := NewZeros(3, 4, 2)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 2; k++ {
				w.Set(i, j, k, float64(100*i+10*j+k))
			}
		}
	}

	lags, err := w.Select(1, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 2}, lags.Shape())
	assert.Equal(t, 231.0, lags.At(2, 0, 1))
	assert.Equal(t, 210.0, lags.At(2, 1, 0))

	feats, err := w.Select(0, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 2}, feats.Shape())
	assert.Equal(t, 231.0, feats.At(0, 3, 1))

	_, err = w.Select(1, []int{4})
	assert.Error(t, err)
	_, err = w.Select(0, nil)
	assert.Error(t, err)
}

func TestSlice2(t *testing.T) {
	w, _ := NewTensor([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	s := w.Slice2(1)
	assert.Equal(t, []float64{5, 6, 7, 8}, s.RawMatrix().Data)
}
