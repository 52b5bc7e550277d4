package trf

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/tensor"
	"github.com/ezoic/mtrf/linear"
	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
	"github.com/ezoic/mtrf/preprocessing"
)

// Train estimates the TRF weights that minimize the squared error between
// the actual and predicted output for one regularization value.
//
// stimulus and response hold one samples × features matrix per trial.
// Within a trial both must have the same number of samples; trials may
// differ in length but not in feature counts. fs is the common sample rate
// in hertz and [tmin, tmax] the lag window in seconds. For a backward model
// the window is applied to the response, so the lags used are those of
// [-tmax, -tmin].
//
// The model is left untouched when Train fails.
//
// Errors:
//   - ShapeError: empty or inconsistent trials, bad feature bands
//   - ConfigurationError: invalid sample rate or time window
//   - RegularizationError: negative or malformed regularization
//   - ModelError wrapping ErrSingularMatrix: the regularized covariance is singular
func (m *TRF) Train(stimulus, response []mat.Matrix, fs, tmin, tmax float64, reg Regularization) (err error) {
	defer errors.Recover(&err, "TRF.Train")

	startTime := time.Now()

	xs, ys := m.orient(stimulus, response)
	nIn, nOut, err := checkTrials("TRF.Train", xs, ys)
	if err != nil {
		return err
	}

	if m.Direction == Backward {
		tmin, tmax = -tmax, -tmin
	}
	minLag, maxLag, err := preprocessing.LagWindow(tmin, tmax, fs)
	if err != nil {
		return err
	}
	lags := preprocessing.Lags(minLag, maxLag)

	m.log().Info("Training started",
		log.OperationKey, log.OperationTrain,
		log.PhaseKey, log.PhaseTraining,
		log.TrialsKey, len(xs),
		log.FeaturesKey, nIn,
		log.OutputsKey, nOut,
		log.LagsKey, len(lags),
		log.RegularizationKey, reg.String(),
	)

	var weights *tensor.Tensor
	var intercept []float64
	switch m.Kind {
	case Single:
		weights, intercept, err = m.trainSingle(xs, ys, lags, fs, reg, nIn)
	default:
		weights, intercept, err = m.estimate(xs, ys, lags, fs, reg, nIn)
	}
	if err != nil {
		return err
	}

	times := make([]float64, len(lags))
	for i, l := range lags {
		times[i] = float64(l) / fs
	}

	m.Weights = weights
	m.Intercept = intercept
	m.Lags = lags
	m.Times = times
	m.Fs = fs
	m.Regularization = reg.clone()
	m.State.SetDimensions(nIn, nOut, len(xs))
	m.State.SetFitted()

	m.log().Info("Training completed",
		log.OperationKey, log.OperationTrain,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.TrialsKey, len(xs),
	)
	return nil
}

// orient returns the model input and output trials for m's direction.
func (m *TRF) orient(stimulus, response []mat.Matrix) (xs, ys []mat.Matrix) {
	if m.Direction == Backward {
		return response, stimulus
	}
	return stimulus, response
}

func checkTrials(op string, xs, ys []mat.Matrix) (nIn, nOut int, err error) {
	if len(xs) == 0 || len(ys) == 0 {
		return 0, 0, errors.NewShapeError(op, "at least one trial of stimulus and response is required")
	}
	if len(xs) != len(ys) {
		return 0, 0, errors.NewShapeErrorf(op, "got %d input trials but %d output trials", len(xs), len(ys))
	}

	for i := range xs {
		if xs[i] == nil || ys[i] == nil {
			return 0, 0, errors.NewShapeErrorf(op, "trial %d is missing", i)
		}
	}

	_, nIn = xs[0].Dims()
	_, nOut = ys[0].Dims()
	for i := range xs {
		rx, cx := xs[i].Dims()
		ry, cy := ys[i].Dims()
		if rx == 0 || cx == 0 || cy == 0 {
			return 0, 0, errors.NewModelError(op, "empty trial", errors.ErrEmptyData)
		}
		if rx != ry {
			return 0, 0, errors.NewShapeErrorf(op, "trial %d: input has %d samples but output has %d", i, rx, ry)
		}
		if cx != nIn || cy != nOut {
			return 0, 0, errors.NewShapeErrorf(op, "trial %d: feature counts %d/%d differ from %d/%d of trial 0",
				i, cx, cy, nIn, nOut)
		}
	}
	return nIn, nOut, nil
}

// estimate solves the regularized normal equations over all trials for the
// given lags and unpacks the solution into weights and intercept.
func (m *TRF) estimate(xs, ys []mat.Matrix, lags []int, fs float64, reg Regularization, nIn int) (*tensor.Tensor, []float64, error) {
	acc := linear.NewAccumulator(lags, m.ZeroPad, m.Bias)
	for i := range xs {
		if err := acc.Add(xs[i], ys[i]); err != nil {
			return nil, nil, err
		}
	}
	covXX, covXY, err := acc.Mean()
	if err != nil {
		return nil, nil, err
	}

	delta := 1 / fs
	penalty, err := m.penalty(reg, nIn, len(lags), covXX.SymmetricDim(), delta)
	if err != nil {
		return nil, nil, err
	}

	w, cond, err := linear.SolveRegularized(covXX, penalty, covXY)
	if err != nil {
		return nil, nil, err
	}
	if cond != 0 {
		m.log().Warn("Regularized covariance is ill-conditioned, weights may be unreliable",
			log.OperationKey, log.OperationTrain,
			log.ConditionKey, cond,
			log.RegularizationKey, reg.String(),
		)
	}
	w.Scale(1/delta, w)

	_, nOut := w.Dims()
	intercept := make([]float64, nOut)
	offset := 0
	if m.Bias {
		mat.Row(intercept, 0, w)
		offset = 1
	}

	weights, err := tensor.FromColumnMajor(w, offset, nIn, len(lags))
	if err != nil {
		return nil, nil, err
	}
	return weights, intercept, nil
}

// trainSingle fits one model per lag. The per-lag models are summed, which
// places every model's weights in its own lag slice, and the intercept is
// their mean.
func (m *TRF) trainSingle(xs, ys []mat.Matrix, lags []int, fs float64, reg Regularization, nIn int) (*tensor.Tensor, []float64, error) {
	sum := m.blank()
	for i, lag := range lags {
		w, b, err := m.estimate(xs, ys, []int{lag}, fs, reg, nIn)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "lag %d", lag)
		}

		part := m.blank()
		part.Weights, err = tensor.NewZeros(nIn, len(lags), w.Dim[2])
		if err != nil {
			return nil, nil, err
		}
		for f := 0; f < nIn; f++ {
			for k := 0; k < w.Dim[2]; k++ {
				part.Weights.Set(f, i, k, w.At(f, 0, k))
			}
		}
		part.Intercept = b
		part.State.SetFitted()

		if sum, err = sum.Add(part); err != nil {
			return nil, nil, err
		}
	}

	mean, err := sum.Div(float64(len(lags)))
	if err != nil {
		return nil, nil, err
	}
	return sum.Weights, mean.Intercept, nil
}

// blank returns an untrained model with m's configuration.
func (m *TRF) blank() *TRF {
	b := m.Copy()
	b.State.Reset()
	b.Weights, b.Intercept, b.Times, b.Lags = nil, nil, nil, nil
	return b
}

// penalty builds the regularization matrix for reg, scaled by 1/delta so
// that penalty strength does not depend on the sample rate.
func (m *TRF) penalty(reg Regularization, nIn, nLags, size int, delta float64) (*mat.SymDense, error) {
	if reg.Matrix != nil {
		return diagonalPenalty(reg.Matrix, size, m.Bias, delta)
	}

	if m.Method == linear.Banded {
		if len(m.Bands) == 0 {
			return nil, errors.NewShapeError("TRF.Train", "banded regularization requires feature band sizes")
		}
		total := 0
		for _, b := range m.Bands {
			total += b
		}
		if total != nIn {
			return nil, errors.NewShapeErrorf("TRF.Train", "feature bands %v cover %d features but the input has %d",
				m.Bands, total, nIn)
		}
		if reg.Coefficients == nil {
			return nil, errors.NewRegularizationError("TRF.Train", "banded regularization requires one coefficient per band")
		}
		p, err := linear.BandedRegularization(nLags, reg.Coefficients, m.Bands, m.Bias)
		if err != nil {
			return nil, err
		}
		p.ScaleSym(1/delta, p)
		return p, nil
	}

	if reg.Coefficients != nil {
		return nil, errors.NewRegularizationError("TRF.Train", "band coefficients given for "+string(m.Method)+" regularization")
	}
	if !(reg.Lambda >= 0) {
		return nil, errors.NewRegularizationError("TRF.Train", "regularization must be a non-negative number")
	}
	p, err := linear.RegularizationMatrix(m.Method, nIn, nLags, m.Bias)
	if err != nil {
		return nil, err
	}
	p.ScaleSym(reg.Lambda/delta, p)
	return p, nil
}

func diagonalPenalty(d *mat.Dense, size int, bias bool, delta float64) (*mat.SymDense, error) {
	r, c := d.Dims()
	if r != size || c != size {
		return nil, errors.NewRegularizationError("TRF.Train",
			"regularization matrix must match the covariance size")
	}
	if !linear.IsDiagonal(d) {
		return nil, errors.NewRegularizationError("TRF.Train",
			"regularization must be a single number or a diagonal matrix")
	}

	p := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		v := d.At(i, i)
		if !(v >= 0) {
			return nil, errors.NewRegularizationError("TRF.Train", "diagonal regularization must be non-negative")
		}
		p.SetSym(i, i, v/delta)
	}
	if bias {
		p.SetSym(0, 0, 0)
	}
	return p, nil
}
