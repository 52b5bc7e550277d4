// Package linear holds the linear-algebra building blocks of TRF
// estimation: lagged covariance accumulation, regularization matrices and
// the regularized normal-equation solve.
//
// Training never stacks all trials into one design matrix. Each trial is
// reduced to its sufficient statistics XᵗX and XᵗY, which are averaged
// across trials:
//
//	acc := linear.NewAccumulator(lags, zeropad, bias)
//	for i := range trials {
//		if err := acc.Add(x[i], y[i]); err != nil {
//			return err
//		}
//	}
//	covXX, covXY, err := acc.Mean()
//
// Memory therefore stays bounded by one trial's lag matrix plus the
// covariance matrices, whatever the number of trials.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/preprocessing"
)

// CovarianceMatrices returns the lagged autocovariance XᵗX of x and the
// cross-covariance XᵗY between x and y, where X is the lag matrix of x.
// Without zero padding y is truncated to the rows kept in X.
func CovarianceMatrices(x, y mat.Matrix, lags []int, zeropad, bias bool) (_ *mat.SymDense, _ *mat.Dense, err error) {
	defer errors.Recover(&err, "CovarianceMatrices")

	nx, _ := x.Dims()
	ny, _ := y.Dims()
	if nx != ny {
		return nil, nil, errors.NewDimensionError("CovarianceMatrices", nx, ny, 0)
	}

	X, err := preprocessing.LagMatrix(x, lags, zeropad, bias)
	if err != nil {
		return nil, nil, err
	}

	target := y
	if !zeropad {
		minLag, maxLag := preprocessing.LagRange(lags)
		target, err = preprocessing.Truncate(y, minLag, maxLag)
		if err != nil {
			return nil, nil, err
		}
	}

	var covXX mat.SymDense
	covXX.SymOuterK(1, X.T())

	var covXY mat.Dense
	covXY.Mul(X.T(), target)

	return &covXX, &covXY, nil
}

// Accumulator averages per-trial covariance matrices.
type Accumulator struct {
	lags    []int
	zeropad bool
	bias    bool

	covXX   *mat.SymDense
	covXY   *mat.Dense
	nTrials int
}

// NewAccumulator creates an empty Accumulator for the given lag layout.
func NewAccumulator(lags []int, zeropad, bias bool) *Accumulator {
	return &Accumulator{lags: lags, zeropad: zeropad, bias: bias}
}

// Add folds one trial into the running sums.
func (a *Accumulator) Add(x, y mat.Matrix) error {
	xx, xy, err := CovarianceMatrices(x, y, a.lags, a.zeropad, a.bias)
	if err != nil {
		return err
	}
	if a.covXX == nil {
		a.covXX, a.covXY = xx, xy
		a.nTrials = 1
		return nil
	}

	if a.covXX.SymmetricDim() != xx.SymmetricDim() {
		return errors.NewDimensionError("Accumulator.Add", a.covXX.SymmetricDim(), xx.SymmetricDim(), 1)
	}
	_, have := a.covXY.Dims()
	_, got := xy.Dims()
	if have != got {
		return errors.NewDimensionError("Accumulator.Add", have, got, 1)
	}

	a.covXX.AddSym(a.covXX, xx)
	a.covXY.Add(a.covXY, xy)
	a.nTrials++
	return nil
}

// Trials returns the number of trials added so far.
func (a *Accumulator) Trials() int {
	return a.nTrials
}

// Mean returns the covariance sums divided by the number of trials.
func (a *Accumulator) Mean() (*mat.SymDense, *mat.Dense, error) {
	if a.nTrials == 0 {
		return nil, nil, errors.NewModelError("Accumulator.Mean", "no trials accumulated", errors.ErrEmptyData)
	}
	scale := 1 / float64(a.nTrials)

	var covXX mat.SymDense
	covXX.ScaleSym(scale, a.covXX)

	var covXY mat.Dense
	covXY.Scale(scale, a.covXY)

	return &covXX, &covXY, nil
}
