package trf

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/linear"
	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
)

// FitResult describes a regularization search.
//
// Candidates lists every regularization value considered, in search order.
// Correlation and Error hold the cross-validated accuracy and mean squared
// error of each candidate; both are nil when there was only one candidate
// and no search took place. Best indexes the candidate the model was
// finally trained with.
type FitResult struct {
	Candidates  []Regularization
	Correlation []float64
	Error       []float64
	Best        int
}

// Fit trains m with the best of the given regularization candidates.
//
// A single candidate is trained directly. Otherwise every candidate is
// cross-validated (see CrossValidate for the options), the one with the
// highest mean accuracy wins (the first on ties), and m is trained on all
// trials with it.
//
// With banded regularization, candidates are the coefficient values to try
// for each band and every combination is searched: with two bands and
// candidates [1, 10] the coefficients (1, 1), (1, 10), (10, 1) and (10, 10)
// are cross-validated in that order.
func (m *TRF) Fit(stimulus, response []mat.Matrix, fs, tmin, tmax float64, candidates []float64, opts ...CVOption) (*FitResult, error) {
	if len(candidates) == 0 {
		return nil, errors.NewConfigurationError("TRF.Fit", "regularization", candidates,
			"at least one regularization value is required")
	}

	var regs []Regularization
	if m.Method == linear.Banded {
		if len(m.Bands) == 0 {
			return nil, errors.NewShapeError("TRF.Fit", "banded regularization requires feature band sizes")
		}
		for _, c := range linear.CoefficientGrid(candidates, len(m.Bands)) {
			regs = append(regs, Banded(c...))
		}
	} else {
		for _, c := range candidates {
			regs = append(regs, Scalar(c))
		}
	}
	return m.Search(stimulus, response, fs, tmin, tmax, regs, opts...)
}

// Search is Fit over explicit regularization values, which may be scalars,
// band coefficients or diagonal matrices.
func (m *TRF) Search(stimulus, response []mat.Matrix, fs, tmin, tmax float64, regs []Regularization, opts ...CVOption) (*FitResult, error) {
	if len(regs) == 0 {
		return nil, errors.NewConfigurationError("TRF.Search", "regularization", regs,
			"at least one regularization value is required")
	}

	result := &FitResult{Candidates: regs}
	if len(regs) == 1 {
		if err := m.Train(stimulus, response, fs, tmin, tmax, regs[0]); err != nil {
			return nil, err
		}
		return result, nil
	}

	startTime := time.Now()
	m.log().Info("Regularization search started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseSearch,
		log.CandidateKey, len(regs),
		log.TrialsKey, len(stimulus),
	)

	result.Correlation = make([]float64, len(regs))
	result.Error = make([]float64, len(regs))
	for i, reg := range regs {
		r, e, err := CrossValidate(m, stimulus, response, fs, tmin, tmax, reg, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "regularization %s", reg)
		}
		result.Correlation[i], result.Error[i] = r, e

		m.log().Debug("Candidate evaluated",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseSearch,
			log.CandidateKey, i,
			log.RegularizationKey, reg.String(),
			log.CorrelationKey, r,
			log.ErrorKey, e,
		)
	}

	result.Best = argmax(result.Correlation)
	if err := m.Train(stimulus, response, fs, tmin, tmax, regs[result.Best]); err != nil {
		return nil, err
	}

	m.log().Info("Regularization search completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseSearch,
		log.RegularizationKey, regs[result.Best].String(),
		log.CorrelationKey, result.Correlation[result.Best],
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
	)
	return result, nil
}

// argmax returns the index of the first maximum, ignoring NaN.
func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(xs[best]) || v > xs[best] {
			best = i
		}
	}
	return best
}
