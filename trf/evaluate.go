package trf

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
)

// EvaluateResult holds one entry per trial of a nested evaluation.
type EvaluateResult struct {
	Correlation    []float64
	Error          []float64
	Regularization []Regularization
}

// Evaluate estimates how well m generalizes without touching the data used
// to choose its regularization. Each trial in turn is held out, a copy of m
// is fitted on the remaining trials with Fit, and the copy is scored on the
// held-out trial.
//
// When the requested number of folds exceeds the remaining trials, the
// inner search falls back to leave-one-out. m is not modified.
func (m *TRF) Evaluate(stimulus, response []mat.Matrix, fs, tmin, tmax float64, candidates []float64, opts ...CVOption) (*EvaluateResult, error) {
	n := len(stimulus)
	if n != len(response) {
		return nil, errors.NewShapeErrorf("TRF.Evaluate", "got %d stimulus trials but %d response trials", n, len(response))
	}
	if n < 3 {
		return nil, errors.NewShapeErrorf("TRF.Evaluate", "nested evaluation needs at least 3 trials, got %d", n)
	}
	if cfg := newCVConfig(opts); cfg.k > n-1 {
		opts = append(append([]CVOption(nil), opts...), WithFolds(LeaveOneOut))
	}

	startTime := time.Now()
	result := &EvaluateResult{
		Correlation:    make([]float64, n),
		Error:          make([]float64, n),
		Regularization: make([]Regularization, n),
	}

	for i := 0; i < n; i++ {
		trainX := make([]mat.Matrix, 0, n-1)
		trainY := make([]mat.Matrix, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				trainX = append(trainX, stimulus[j])
				trainY = append(trainY, response[j])
			}
		}

		held := m.Copy()
		fit, err := held.Fit(trainX, trainY, fs, tmin, tmax, candidates, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "held-out trial %d", i)
		}
		pred, err := held.Predict(Observed(stimulus[i]), Observed(response[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "held-out trial %d", i)
		}
		if result.Correlation[i], err = pred.ScalarCorrelation(); err != nil {
			return nil, err
		}
		if result.Error[i], err = pred.ScalarError(); err != nil {
			return nil, err
		}
		result.Regularization[i] = fit.Candidates[fit.Best].clone()

		m.log().Debug("Held-out trial evaluated",
			log.OperationKey, log.OperationEvaluate,
			log.FoldKey, i,
			log.RegularizationKey, result.Regularization[i].String(),
			log.CorrelationKey, result.Correlation[i],
		)
	}

	m.log().Info("Nested evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.TrialsKey, n,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
	)
	return result, nil
}
