// Package preprocessing builds time-lagged design matrices.
//
// A lag matrix expands a samples × features series into a design matrix in
// which every requested lag contributes one block of feature columns,
// shifted in time by that lag:
//
//	X, err := preprocessing.LagMatrix(stimulus, preprocessing.Lags(0, 30), true, true)
//
// Column b + i·F + f holds feature f delayed by lags[i], where F is the
// feature count and b is 1 when a leading column of ones carries the bias
// term. Rows that would read outside the series are either zero padded or,
// with zero padding disabled, dropped; Truncate drops the same rows from a
// target series so design and target stay aligned.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/parallel"
	"github.com/ezoic/mtrf/pkg/errors"
)

// Rows are filled sequentially below this count.
const parallelThreshold = 4096

// LagWindow converts the time bounds tmin and tmax (seconds) into the
// integer lag range [floor(tmin·fs), ceil(tmax·fs)].
func LagWindow(tmin, tmax, fs float64) (minLag, maxLag int, err error) {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return 0, 0, errors.NewConfigurationError("LagWindow", "fs", fs, "sample rate must be positive and finite")
	}
	if math.IsNaN(tmin) || math.IsNaN(tmax) || math.IsInf(tmin, 0) || math.IsInf(tmax, 0) {
		return 0, 0, errors.NewConfigurationError("LagWindow", "time window",
			fmt.Sprintf("[%v, %v]", tmin, tmax), "bounds must be finite")
	}
	minLag = int(math.Floor(tmin * fs))
	maxLag = int(math.Ceil(tmax * fs))
	if minLag > maxLag {
		return 0, 0, errors.NewConfigurationError("LagWindow", "time window",
			fmt.Sprintf("[%v, %v]", tmin, tmax), "tmin must not exceed tmax")
	}
	return minLag, maxLag, nil
}

// Lags returns the consecutive integers from minLag to maxLag inclusive.
func Lags(minLag, maxLag int) []int {
	if maxLag < minLag {
		return nil
	}
	lags := make([]int, 0, maxLag-minLag+1)
	for l := minLag; l <= maxLag; l++ {
		lags = append(lags, l)
	}
	return lags
}

// LagRange returns the smallest and largest entry of lags.
func LagRange(lags []int) (minLag, maxLag int) {
	minLag, maxLag = lags[0], lags[0]
	for _, l := range lags[1:] {
		if l < minLag {
			minLag = l
		}
		if l > maxLag {
			maxLag = l
		}
	}
	return minLag, maxLag
}

// ValidRows returns the half-open row range [start, end) of an n-sample
// series for which every lag in [minLag, maxLag] reads inside the series.
func ValidRows(n, minLag, maxLag int) (start, end int) {
	start = 0
	if maxLag > 0 {
		start = maxLag
	}
	end = n
	if minLag < 0 {
		end = n + minLag
	}
	return start, end
}

// LagMatrix builds the lagged design matrix of x for the given lags.
//
// With zeropad, the result has as many rows as x and out-of-range reads are
// zero. Without it, only the rows reported by ValidRows are kept. When bias
// is set, column 0 is a column of ones.
func LagMatrix(x mat.Matrix, lags []int, zeropad, bias bool) (*mat.Dense, error) {
	if len(lags) == 0 {
		return nil, errors.NewShapeError("LagMatrix", "at least one lag is required")
	}
	n, nFeatures := x.Dims()
	if n == 0 || nFeatures == 0 {
		return nil, errors.NewModelError("LagMatrix", "empty series", errors.ErrEmptyData)
	}

	start, end := 0, n
	if !zeropad {
		minLag, maxLag := LagRange(lags)
		start, end = ValidRows(n, minLag, maxLag)
		if end <= start {
			return nil, errors.NewShapeErrorf("LagMatrix",
				"series of %d samples is too short for lags [%d, %d] without zero padding", n, minLag, maxLag)
		}
	}

	offset := 0
	if bias {
		offset = 1
	}
	rows := end - start
	out := mat.NewDense(rows, offset+nFeatures*len(lags), nil)

	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			t := start + r
			if bias {
				out.Set(r, 0, 1)
			}
			for i, lag := range lags {
				src := t - lag
				if src < 0 || src >= n {
					continue
				}
				col := offset + i*nFeatures
				for f := 0; f < nFeatures; f++ {
					out.Set(r, col+f, x.At(src, f))
				}
			}
		}
	})

	return out, nil
}

// Truncate keeps the rows of y that LagMatrix keeps for a series of the same
// length when zero padding is disabled.
func Truncate(y mat.Matrix, minLag, maxLag int) (*mat.Dense, error) {
	n, c := y.Dims()
	start, end := ValidRows(n, minLag, maxLag)
	if end <= start {
		return nil, errors.NewShapeErrorf("Truncate",
			"series of %d samples is too short for lags [%d, %d] without zero padding", n, minLag, maxLag)
	}
	out := mat.NewDense(end-start, c, nil)
	for r := start; r < end; r++ {
		for j := 0; j < c; j++ {
			out.Set(r-start, j, y.At(r, j))
		}
	}
	return out, nil
}
