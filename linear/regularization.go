package linear

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
)

// Method selects the regularization matrix.
type Method string

const (
	// Ridge penalizes the squared magnitude of every weight.
	Ridge Method = "ridge"
	// Tikhonov penalizes the curvature of each feature's weights across lags.
	Tikhonov Method = "tikhonov"
	// Banded applies one ridge coefficient per group of features.
	Banded Method = "banded"
)

// ParseMethod converts a method name into a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate returns a ConfigurationError for unknown methods.
func (m Method) Validate() error {
	switch m {
	case Ridge, Tikhonov, Banded:
		return nil
	}
	return errors.NewConfigurationError("Method", "method", string(m), `must be "ridge", "tikhonov" or "banded"`)
}

func designSize(nFeatures, nLags int, bias bool) int {
	size := nFeatures * nLags
	if bias {
		size++
	}
	return size
}

// RegularizationMatrix builds the penalty matrix for a design of nFeatures
// features at nLags lags, laid out like the lag matrix (bias column first,
// then one block of features per lag). The bias row and column are zero.
//
// Ridge yields the identity. Tikhonov yields, for every feature separately,
// the second-difference operator along its lags: 1 on the diagonal, 0.5 on
// the diagonal at both ends of the lag chain and -0.5 between adjacent
// lags of that feature. A feature with a single lag gets 1. Banded needs
// coefficients and is built by BandedRegularization.
func RegularizationMatrix(method Method, nFeatures, nLags int, bias bool) (*mat.SymDense, error) {
	if nFeatures <= 0 || nLags <= 0 {
		return nil, errors.NewShapeErrorf("RegularizationMatrix",
			"need at least one feature and one lag, got %d features and %d lags", nFeatures, nLags)
	}

	offset := 0
	if bias {
		offset = 1
	}
	size := designSize(nFeatures, nLags, bias)
	reg := mat.NewSymDense(size, nil)

	switch method {
	case Ridge:
		for i := offset; i < size; i++ {
			reg.SetSym(i, i, 1)
		}
	case Tikhonov:
		col := func(f, l int) int { return offset + l*nFeatures + f }
		for f := 0; f < nFeatures; f++ {
			if nLags == 1 {
				reg.SetSym(col(f, 0), col(f, 0), 1)
				continue
			}
			for l := 0; l < nLags; l++ {
				d := 1.0
				if l == 0 || l == nLags-1 {
					d = 0.5
				}
				reg.SetSym(col(f, l), col(f, l), d)
				if l+1 < nLags {
					reg.SetSym(col(f, l), col(f, l+1), -0.5)
				}
			}
		}
	case Banded:
		return nil, errors.NewConfigurationError("RegularizationMatrix", "method", string(method),
			"banded regularization requires coefficients, use BandedRegularization")
	default:
		return nil, method.Validate()
	}
	return reg, nil
}

// BandedRegularization builds a diagonal penalty in which every column of a
// feature belonging to band b is scaled by coefficients[b]. bands holds the
// size of each contiguous feature band, in input column order; a stimulus
// made of an envelope and a 16-band spectrogram has bands [1, 16].
func BandedRegularization(nLags int, coefficients []float64, bands []int, bias bool) (*mat.SymDense, error) {
	if len(bands) == 0 {
		return nil, errors.NewShapeError("BandedRegularization", "feature band sizes are required")
	}
	if len(coefficients) != len(bands) {
		return nil, errors.NewConfigurationError("BandedRegularization", "coefficients", coefficients,
			fmt.Sprintf("need one coefficient per band (%d bands)", len(bands)))
	}
	if nLags <= 0 {
		return nil, errors.NewShapeErrorf("BandedRegularization", "need at least one lag, got %d", nLags)
	}

	featureCoef := make([]float64, 0)
	for b, size := range bands {
		if size <= 0 {
			return nil, errors.NewConfigurationError("BandedRegularization", "bands", bands,
				"band sizes must be positive")
		}
		if coefficients[b] < 0 {
			return nil, errors.NewRegularizationError("BandedRegularization",
				fmt.Sprintf("coefficient %v for band %d is negative", coefficients[b], b))
		}
		for i := 0; i < size; i++ {
			featureCoef = append(featureCoef, coefficients[b])
		}
	}

	nFeatures := len(featureCoef)
	offset := 0
	if bias {
		offset = 1
	}
	reg := mat.NewSymDense(designSize(nFeatures, nLags, bias), nil)
	for l := 0; l < nLags; l++ {
		for f, c := range featureCoef {
			i := offset + l*nFeatures + f
			reg.SetSym(i, i, c)
		}
	}
	return reg, nil
}

// CoefficientGrid enumerates every assignment of one candidate coefficient
// to each of nBands bands, in lexicographic order of candidate positions.
// With two bands this is the ordered list of pairs (a, b) for a, b in
// candidates, so index i of the grid always names the same assignment.
func CoefficientGrid(candidates []float64, nBands int) [][]float64 {
	if len(candidates) == 0 || nBands <= 0 {
		return nil
	}
	total := 1
	for i := 0; i < nBands; i++ {
		total *= len(candidates)
	}

	grid := make([][]float64, total)
	for g := 0; g < total; g++ {
		combo := make([]float64, nBands)
		rem := g
		for b := nBands - 1; b >= 0; b-- {
			combo[b] = candidates[rem%len(candidates)]
			rem /= len(candidates)
		}
		grid[g] = combo
	}
	return grid
}

// IsDiagonal reports whether every off-diagonal element of m is zero.
func IsDiagonal(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
