package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/model"
	"github.com/ezoic/mtrf/pkg/errors"
)

// StandardScaler standardizes the features of a set of trials to zero mean
// and unit variance. The statistics are pooled over every sample of every
// trial, so all trials share one mean and one scale per feature.
type StandardScaler struct {
	State *model.StateManager

	// Mean is the pooled mean of each feature.
	Mean []float64

	// Scale is the pooled population standard deviation of each feature,
	// or 1 for a feature that is (numerically) constant.
	Scale []float64

	// NFeatures is the feature count seen by Fit.
	NFeatures int

	// WithMean subtracts the mean (default: true).
	WithMean bool

	// WithStd divides by the standard deviation (default: true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	scaled, err := scaler.FitTransform(stimulus)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		State:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool {
	return s.State != nil && s.State.IsFitted()
}

// Fit computes the pooled statistics of trials.
func (s *StandardScaler) Fit(trials []mat.Matrix) (err error) {
	defer errors.Recover(&err, "StandardScaler.Fit")

	c, samples, err := checkScalerTrials("StandardScaler.Fit", trials)
	if err != nil {
		return err
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	if s.WithMean {
		for _, x := range trials {
			r, _ := x.Dims()
			for j := 0; j < c; j++ {
				for i := 0; i < r; i++ {
					mean[j] += x.At(i, j)
				}
			}
		}
		for j := range mean {
			mean[j] /= float64(samples)
		}
	}

	for j := range scale {
		scale[j] = 1
	}
	if s.WithStd {
		ss := make([]float64, c)
		for _, x := range trials {
			r, _ := x.Dims()
			for j := 0; j < c; j++ {
				for i := 0; i < r; i++ {
					d := x.At(i, j) - mean[j]
					ss[j] += d * d
				}
			}
		}
		for j := range scale {
			if sd := math.Sqrt(ss[j] / float64(samples)); sd >= 1e-8 {
				scale[j] = sd
			}
		}
	}

	if s.State == nil {
		s.State = model.NewStateManager()
	}
	s.NFeatures = c
	s.Mean = mean
	s.Scale = scale
	s.State.SetDimensions(c, c, len(trials))
	s.State.SetFitted()
	return nil
}

// Transform applies (x - Mean) / Scale to every trial.
func (s *StandardScaler) Transform(trials []mat.Matrix) (_ []mat.Matrix, err error) {
	defer errors.Recover(&err, "StandardScaler.Transform")
	return s.apply("StandardScaler.Transform", trials, func(v, mean, scale float64) float64 {
		return (v - mean) / scale
	})
}

// FitTransform fits the scaler on trials and transforms them.
func (s *StandardScaler) FitTransform(trials []mat.Matrix) ([]mat.Matrix, error) {
	if err := s.Fit(trials); err != nil {
		return nil, err
	}
	return s.Transform(trials)
}

// InverseTransform maps standardized trials back to the original units.
func (s *StandardScaler) InverseTransform(trials []mat.Matrix) (_ []mat.Matrix, err error) {
	defer errors.Recover(&err, "StandardScaler.InverseTransform")
	return s.apply("StandardScaler.InverseTransform", trials, func(v, mean, scale float64) float64 {
		return v*scale + mean
	})
}

func (s *StandardScaler) apply(op string, trials []mat.Matrix, f func(v, mean, scale float64) float64) ([]mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", op)
	}
	out := make([]mat.Matrix, len(trials))
	for k, x := range trials {
		if x == nil {
			return nil, errors.NewShapeErrorf(op, "trial %d is missing", k)
		}
		r, c := x.Dims()
		if c != s.NFeatures {
			return nil, errors.NewDimensionError(op, s.NFeatures, c, 1)
		}
		d := mat.NewDense(r, c, nil)
		d.Apply(func(i, j int, v float64) float64 {
			return f(v, s.Mean[j], s.Scale[j])
		}, x)
		out[k] = d
	}
	return out, nil
}

// String returns a description of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, fitted=false)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, s.NFeatures)
}

func checkScalerTrials(op string, trials []mat.Matrix) (nFeatures, samples int, err error) {
	if len(trials) == 0 {
		return 0, 0, errors.NewModelError(op, "no trials", errors.ErrEmptyData)
	}
	for k, x := range trials {
		if x == nil {
			return 0, 0, errors.NewShapeErrorf(op, "trial %d is missing", k)
		}
		r, c := x.Dims()
		if r == 0 || c == 0 {
			return 0, 0, errors.NewModelError(op, "empty trial", errors.ErrEmptyData)
		}
		if k == 0 {
			nFeatures = c
		} else if c != nFeatures {
			return 0, 0, errors.NewDimensionError(op, nFeatures, c, 1)
		}
		samples += r
	}
	return nFeatures, samples, nil
}
