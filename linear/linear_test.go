package linear

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/preprocessing"
)

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(r, c, data)
}

func TestCovarianceMatricesMatchExplicitProducts(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := randomDense(rng, 50, 2)
	y := randomDense(rng, 50, 3)
	lags := preprocessing.Lags(-2, 3)

	for _, zeropad := range []bool{true, false} {
		covXX, covXY, err := CovarianceMatrices(x, y, lags, zeropad, true)
		require.NoError(t, err)

		X, err := preprocessing.LagMatrix(x, lags, zeropad, true)
		require.NoError(t, err)
		target := mat.Matrix(y)
		if !zeropad {
			target, err = preprocessing.Truncate(y, -2, 3)
			require.NoError(t, err)
		}

		var wantXX, wantXY mat.Dense
		wantXX.Mul(X.T(), X)
		wantXY.Mul(X.T(), target)

		assert.Equal(t, 1+2*6, covXX.SymmetricDim())
		assert.True(t, mat.EqualApprox(&wantXX, covXX, 1e-10), "zeropad=%v", zeropad)
		assert.True(t, mat.EqualApprox(&wantXY, covXY, 1e-10), "zeropad=%v", zeropad)
	}
}

func TestCovarianceMatricesSampleMismatch(t *testing.T) {
	_, _, err := CovarianceMatrices(mat.NewDense(10, 1, nil), mat.NewDense(9, 1, nil), []int{0}, true, true)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

// Accumulated covariances are means: repeating the same trial n times gives
// the single-trial covariance, whatever n is.
func TestAccumulatorAveragesAcrossTrials(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	x := randomDense(rng, 40, 2)
	y := randomDense(rng, 40, 1)
	lags := preprocessing.Lags(0, 4)

	single, singleXY, err := CovarianceMatrices(x, y, lags, true, true)
	require.NoError(t, err)

	for _, n := range []int{1, 3, 7} {
		acc := NewAccumulator(lags, true, true)
		for i := 0; i < n; i++ {
			require.NoError(t, acc.Add(x, y))
		}
		assert.Equal(t, n, acc.Trials())

		covXX, covXY, err := acc.Mean()
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(single, covXX, 1e-10), "n=%d", n)
		assert.True(t, mat.EqualApprox(singleXY, covXY, 1e-10), "n=%d", n)
	}
}

func TestAccumulatorVariableTrialLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	lags := preprocessing.Lags(0, 2)
	acc := NewAccumulator(lags, false, true)

	x1, y1 := randomDense(rng, 30, 1), randomDense(rng, 30, 2)
	x2, y2 := randomDense(rng, 45, 1), randomDense(rng, 45, 2)
	require.NoError(t, acc.Add(x1, y1))
	require.NoError(t, acc.Add(x2, y2))

	a1, b1, _ := CovarianceMatrices(x1, y1, lags, false, true)
	a2, b2, _ := CovarianceMatrices(x2, y2, lags, false, true)

	var wantXX mat.SymDense
	wantXX.AddSym(a1, a2)
	wantXX.ScaleSym(0.5, &wantXX)
	var wantXY mat.Dense
	wantXY.Add(b1, b2)
	wantXY.Scale(0.5, &wantXY)

	covXX, covXY, err := acc.Mean()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(&wantXX, covXX, 1e-10))
	assert.True(t, mat.EqualApprox(&wantXY, covXY, 1e-10))

	// feature count drift is rejected
	assert.Error(t, acc.Add(randomDense(rng, 30, 2), y1))
}

func TestAccumulatorEmpty(t *testing.T) {
	_, _, err := NewAccumulator([]int{0}, true, true).Mean()
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestRidgeMatrix(t *testing.T) {
	reg, err := RegularizationMatrix(Ridge, 2, 3, true)
	require.NoError(t, err)
	require.Equal(t, 7, reg.SymmetricDim())
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			want := 0.0
			if i == j && i > 0 {
				want = 1
			}
			assert.Equal(t, want, reg.At(i, j), "(%d,%d)", i, j)
		}
	}

	noBias, err := RegularizationMatrix(Ridge, 2, 3, false)
	require.NoError(t, err)
	assert.Equal(t, 6, noBias.SymmetricDim())
	assert.Equal(t, 1.0, noBias.At(0, 0))
}

func TestTikhonovMatrix(t *testing.T) {
	const nFeatures, nLags = 2, 4
	reg, err := RegularizationMatrix(Tikhonov, nFeatures, nLags, true)
	require.NoError(t, err)

	col := func(f, l int) int { return 1 + l*nFeatures + f }

	for i := 0; i < reg.SymmetricDim(); i++ {
		assert.Equal(t, 0.0, reg.At(0, i), "bias row")
	}
	for f := 0; f < nFeatures; f++ {
		assert.Equal(t, 0.5, reg.At(col(f, 0), col(f, 0)))
		assert.Equal(t, 1.0, reg.At(col(f, 1), col(f, 1)))
		assert.Equal(t, 1.0, reg.At(col(f, 2), col(f, 2)))
		assert.Equal(t, 0.5, reg.At(col(f, 3), col(f, 3)))
		for l := 0; l+1 < nLags; l++ {
			assert.Equal(t, -0.5, reg.At(col(f, l), col(f, l+1)))
		}
	}
	// no coupling between features
	assert.Equal(t, 0.0, reg.At(col(0, 0), col(1, 0)))
	assert.Equal(t, 0.0, reg.At(col(0, 1), col(1, 0)))

	// a constant weight curve has zero curvature penalty
	v := mat.NewVecDense(reg.SymmetricDim(), nil)
	for i := 1; i < v.Len(); i++ {
		v.SetVec(i, 3)
	}
	assert.InDelta(t, 0, mat.Inner(v, reg, v), 1e-12)

	single, err := RegularizationMatrix(Tikhonov, 3, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, single.At(2, 2))
}

func TestRegularizationMatrixErrors(t *testing.T) {
	_, err := RegularizationMatrix(Banded, 2, 3, true)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = RegularizationMatrix(Method("lasso"), 2, 3, true)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = RegularizationMatrix(Ridge, 0, 3, true)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestBandedRegularization(t *testing.T) {
	// one envelope feature and a three-band spectrogram at two lags
	reg, err := BandedRegularization(2, []float64{0.1, 10}, []int{1, 3}, true)
	require.NoError(t, err)
	require.Equal(t, 1+4*2, reg.SymmetricDim())

	want := []float64{0, 0.1, 10, 10, 10, 0.1, 10, 10, 10}
	for i, w := range want {
		assert.Equal(t, w, reg.At(i, i), "diag %d", i)
	}
	assert.True(t, IsDiagonal(reg))

	_, err = BandedRegularization(2, []float64{1}, []int{1, 3}, true)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	_, err = BandedRegularization(2, []float64{1, 1}, []int{1, 0}, true)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	_, err = BandedRegularization(2, []float64{1, -1}, []int{1, 1}, true)
	assert.True(t, errors.Is(err, errors.ErrRegularization))
	_, err = BandedRegularization(2, nil, nil, true)
	assert.True(t, errors.Is(err, errors.ErrShape))
}

func TestCoefficientGrid(t *testing.T) {
	grid := CoefficientGrid([]float64{1, 10, 100}, 2)
	assert.Equal(t, [][]float64{
		{1, 1}, {1, 10}, {1, 100},
		{10, 1}, {10, 10}, {10, 100},
		{100, 1}, {100, 10}, {100, 100},
	}, grid)

	three := CoefficientGrid([]float64{0.5, 2}, 3)
	assert.Len(t, three, 8)
	assert.Equal(t, []float64{0.5, 2, 0.5}, three[2])
	assert.Equal(t, []float64{2, 2, 2}, three[7])

	assert.Nil(t, CoefficientGrid(nil, 2))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" Tikhonov ")
	require.NoError(t, err)
	assert.Equal(t, Tikhonov, m)

	_, err = ParseMethod("elastic")
	assert.Error(t, err)
}

func TestIsDiagonal(t *testing.T) {
	assert.True(t, IsDiagonal(mat.NewDiagDense(3, []float64{1, 2, 3})))
	assert.False(t, IsDiagonal(mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})))
}

func TestSolveRegularizedRecoversWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	X := randomDense(rng, 200, 4)
	trueW := mat.NewDense(4, 2, []float64{1, -1, 0.5, 2, -3, 0, 0.25, 1})
	var Y mat.Dense
	Y.Mul(X, trueW)

	var covXX mat.SymDense
	covXX.SymOuterK(1, X.T())
	var covXY mat.Dense
	covXY.Mul(X.T(), &Y)

	w, cond, err := SolveRegularized(&covXX, mat.NewSymDense(4, nil), &covXY)
	require.NoError(t, err)
	assert.Zero(t, cond)
	assert.True(t, mat.EqualApprox(trueW, w, 1e-8))

	// a strong penalty shrinks the weights
	penalty := mat.NewSymDense(4, []float64{1e6, 0, 0, 0, 0, 1e6, 0, 0, 0, 0, 1e6, 0, 0, 0, 0, 1e6})
	shrunk, _, err := SolveRegularized(&covXX, penalty, &covXY)
	require.NoError(t, err)
	assert.Less(t, mat.Norm(shrunk, 2), mat.Norm(w, 2))
}

func TestSolveRegularizedSingular(t *testing.T) {
	zero := mat.NewSymDense(3, nil)
	_, _, err := SolveRegularized(zero, zero, mat.NewDense(3, 1, []float64{1, 2, 3}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	_, _, err = SolveRegularized(zero, mat.NewSymDense(2, nil), mat.NewDense(3, 1, nil))
	assert.True(t, errors.Is(err, errors.ErrShape))
}
