package linear

import (
	stderrors "errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
)

// SolveRegularized solves the regularized normal equations
//
//	(covXX + penalty) · W = covXY
//
// by LU decomposition. When the system is ill-conditioned the solution is
// still returned together with the estimated condition number; cond is
// zero otherwise. An exactly singular system yields a ModelError wrapping
// ErrSingularMatrix.
func SolveRegularized(covXX, penalty mat.Symmetric, covXY mat.Matrix) (w *mat.Dense, cond float64, err error) {
	defer errors.Recover(&err, "SolveRegularized")

	n := covXX.SymmetricDim()
	if penalty.SymmetricDim() != n {
		return nil, 0, errors.NewDimensionError("SolveRegularized", n, penalty.SymmetricDim(), 0)
	}
	if r, _ := covXY.Dims(); r != n {
		return nil, 0, errors.NewDimensionError("SolveRegularized", n, r, 0)
	}

	var lhs mat.Dense
	lhs.Add(covXX, penalty)

	w = &mat.Dense{}
	if solveErr := w.Solve(&lhs, covXY); solveErr != nil {
		var c mat.Condition
		if stderrors.As(solveErr, &c) && !math.IsInf(float64(c), 1) {
			return w, float64(c), nil
		}
		return nil, 0, errors.NewModelError("SolveRegularized", "regularized covariance could not be inverted",
			errors.Wrap(errors.ErrSingularMatrix, solveErr.Error()))
	}
	return w, 0, nil
}
