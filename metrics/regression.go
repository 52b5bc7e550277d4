// Package metrics provides accuracy and error scores for TRF predictions.
//
// Predictions are samples × features matrices, and every score is computed
// per feature (column):
//
//   - MSEColumns: mean squared error per column
//   - PearsonColumns: Pearson correlation per column
//   - R2Columns: coefficient of determination per column
//
// Any of them can serve as a ColumnMetric, the accuracy score used by the
// cross-validator to rank regularization candidates (higher is better).
//
// Example usage:
//
//	r, err := metrics.PearsonColumns(yTrue, yPred)
//	mse, err := metrics.MSEColumns(yTrue, yPred)
package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	mtrfErrors "github.com/ezoic/mtrf/pkg/errors"
)

// ColumnMetric scores a prediction against ground truth, one value per
// column. Higher values must mean better predictions.
type ColumnMetric func(yTrue, yPred mat.Matrix) ([]float64, error)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, mtrfErrors.NewModelError("MSE", "empty vector", mtrfErrors.ErrEmptyData)
	}

	if yPred.Len() != n {
		return 0, mtrfErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

func checkPair(op string, yTrue, yPred mat.Matrix) (rows, cols int, err error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, 0, mtrfErrors.NewModelError(op, "empty matrix", mtrfErrors.ErrEmptyData)
	}
	if rTrue != rPred {
		return 0, 0, mtrfErrors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, 0, mtrfErrors.NewDimensionError(op, cTrue, cPred, 1)
	}
	return rTrue, cTrue, nil
}

func column(m mat.Matrix, j, rows int) []float64 {
	return mat.Col(make([]float64, rows), j, m)
}

// MSEColumns returns the mean squared error of every column.
func MSEColumns(yTrue, yPred mat.Matrix) ([]float64, error) {
	rows, cols, err := checkPair("MSEColumns", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		diff := column(yTrue, j, rows)
		floats.Sub(diff, column(yPred, j, rows))
		out[j] = floats.Dot(diff, diff) / float64(rows)
	}
	return out, nil
}

// PearsonColumns returns the Pearson correlation between matching columns.
// A constant column yields NaN.
func PearsonColumns(yTrue, yPred mat.Matrix) ([]float64, error) {
	rows, cols, err := checkPair("PearsonColumns", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = stat.Correlation(column(yTrue, j, rows), column(yPred, j, rows), nil)
	}
	return out, nil
}

// R2Columns returns the coefficient of determination of every column.
// A constant true column yields a non-finite value.
func R2Columns(yTrue, yPred mat.Matrix) ([]float64, error) {
	rows, cols, err := checkPair("R2Columns", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = stat.RSquaredFrom(column(yPred, j, rows), column(yTrue, j, rows), nil)
	}
	return out, nil
}
