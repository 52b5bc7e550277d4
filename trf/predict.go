package trf

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/metrics"
	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
	"github.com/ezoic/mtrf/preprocessing"
)

// Input is an optional set of trials passed to Predict. Build it with
// Observed or Missing.
type Input struct {
	trials  []mat.Matrix
	present bool
}

// Observed wraps the given trials.
func Observed(trials ...mat.Matrix) Input {
	return Input{trials: trials, present: true}
}

// Missing marks an input as not available.
func Missing() Input {
	return Input{}
}

// Present reports whether the input holds data.
func (in Input) Present() bool {
	return in.present
}

// Len returns the number of trials.
func (in Input) Len() int {
	return len(in.trials)
}

type predictConfig struct {
	lags            []int
	features        []int
	averageTrials   bool
	averageFeatures bool
}

// PredictOption configures Predict.
type PredictOption func(*predictConfig)

// WithLagSelection restricts prediction to the lags at the given positions
// of the model's lag axis.
func WithLagSelection(idx ...int) PredictOption {
	return func(c *predictConfig) {
		c.lags = append(make([]int, 0, len(idx)), idx...)
	}
}

// WithFeatureSelection restricts prediction to the given input features.
// The input trials keep all their columns; unselected ones are ignored.
func WithFeatureSelection(idx ...int) PredictOption {
	return func(c *predictConfig) {
		c.features = append(make([]int, 0, len(idx)), idx...)
	}
}

// AverageTrials sets whether scores are averaged over trials (default true).
func AverageTrials(average bool) PredictOption {
	return func(c *predictConfig) {
		c.averageTrials = average
	}
}

// AverageFeatures sets whether scores are averaged over output features
// (default true).
func AverageFeatures(average bool) PredictOption {
	return func(c *predictConfig) {
		c.averageFeatures = average
	}
}

// Prediction is the result of Predict.
//
// Outputs holds one predicted samples × features matrix per trial. When
// ground truth was supplied, Scored is true and Correlation and Error hold
// the accuracy and mean squared error as trials × output features
// matrices, collapsed to one row and/or one column by the averaging flags.
type Prediction struct {
	Outputs     []*mat.Dense
	Scored      bool
	Correlation *mat.Dense
	Error       *mat.Dense
}

// Output returns the prediction of a single-trial input, or nil when more
// than one trial was predicted.
func (p *Prediction) Output() *mat.Dense {
	if len(p.Outputs) != 1 {
		return nil
	}
	return p.Outputs[0]
}

// ScalarCorrelation returns the fully averaged accuracy score.
func (p *Prediction) ScalarCorrelation() (float64, error) {
	return scalar("Prediction.ScalarCorrelation", p.Scored, p.Correlation)
}

// ScalarError returns the fully averaged mean squared error.
func (p *Prediction) ScalarError() (float64, error) {
	return scalar("Prediction.ScalarError", p.Scored, p.Error)
}

func scalar(op string, scored bool, m *mat.Dense) (float64, error) {
	if !scored {
		return 0, errors.NewStateError(op, "prediction was not scored against ground truth")
	}
	if r, c := m.Dims(); r != 1 || c != 1 {
		return 0, errors.NewShapeErrorf(op, "score is %d×%d, average trials and features to get a scalar", r, c)
	}
	return m.At(0, 0), nil
}

// Predict applies the trained model.
//
// The input matching the model's direction is required: the stimulus for a
// forward model, the response for a backward model. When the other one is
// supplied too, every trial's prediction is scored against it.
//
// Example:
//
//	pred, err := m.Predict(trf.Observed(stim), trf.Observed(resp))
//	r, _ := pred.ScalarCorrelation()
//
// Errors:
//   - NotFittedError: the model is untrained
//   - StateError: the required input is missing or trial counts differ
//   - ConfigurationError: a lag or feature selector is out of range
//   - ShapeError: an input trial does not match the trained dimensions
func (m *TRF) Predict(stimulus, response Input, opts ...PredictOption) (_ *Prediction, err error) {
	defer errors.Recover(&err, "TRF.Predict")

	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("TRF", "Predict")
	}

	cfg := predictConfig{averageTrials: true, averageFeatures: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	in, out := stimulus, response
	if m.Direction == Backward {
		in, out = response, stimulus
	}
	if !in.present {
		if m.Direction == Forward {
			return nil, errors.NewStateError("TRF.Predict", "need stimulus to predict with a forward model")
		}
		return nil, errors.NewStateError("TRF.Predict", "need response to predict with a backward model")
	}
	if in.Len() == 0 {
		return nil, errors.NewModelError("TRF.Predict", "no trials to predict", errors.ErrEmptyData)
	}
	if out.present && out.Len() != in.Len() {
		return nil, errors.NewStateError("TRF.Predict", "stimulus and response must have the same number of trials")
	}

	coef, lags, features, err := m.predictionMatrix(cfg)
	if err != nil {
		return nil, err
	}
	nIn := m.Weights.Dim[0]
	nOut := m.Weights.Dim[2]

	m.log().Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.TrialsKey, in.Len(),
		log.LagsKey, len(lags),
	)

	pred := &Prediction{
		Outputs: make([]*mat.Dense, in.Len()),
		Scored:  out.present,
	}
	var corr, mse *mat.Dense
	if pred.Scored {
		corr = mat.NewDense(in.Len(), nOut, nil)
		mse = mat.NewDense(in.Len(), nOut, nil)
	}

	for i, x := range in.trials {
		if x == nil {
			return nil, errors.NewShapeErrorf("TRF.Predict", "trial %d is missing", i)
		}
		if _, c := x.Dims(); c != nIn {
			return nil, errors.NewDimensionError("TRF.Predict", nIn, c, 1)
		}
		if features != nil {
			x = selectColumns(x, features)
		}

		X, err := preprocessing.LagMatrix(x, lags, m.ZeroPad, m.Bias)
		if err != nil {
			return nil, errors.Wrapf(err, "trial %d", i)
		}
		var yPred mat.Dense
		yPred.Mul(X, coef)
		pred.Outputs[i] = &yPred

		if !pred.Scored {
			continue
		}
		y, err := m.target(out.trials[i], x, lags, nOut)
		if err != nil {
			return nil, errors.Wrapf(err, "trial %d", i)
		}
		r, err := m.accuracy()(y, &yPred)
		if err != nil {
			return nil, err
		}
		e, err := metrics.MSEColumns(y, &yPred)
		if err != nil {
			return nil, err
		}
		corr.SetRow(i, r)
		mse.SetRow(i, e)
	}

	if pred.Scored {
		pred.Correlation = collapse(corr, cfg.averageTrials, cfg.averageFeatures)
		pred.Error = collapse(mse, cfg.averageTrials, cfg.averageFeatures)
	}

	m.log().Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(pred.Outputs),
	)
	return pred, nil
}

// predictionMatrix assembles [intercept; weights] scaled by the sampling
// interval, restricted to the selected lags and features. It returns the
// lags and feature indices in use; features is nil when all are used.
func (m *TRF) predictionMatrix(cfg predictConfig) (*mat.Dense, []int, []int, error) {
	w := m.Weights
	lags := m.Lags

	if cfg.lags != nil {
		if err := checkSelection("lag", cfg.lags, len(m.Lags)); err != nil {
			return nil, nil, nil, err
		}
		sel, err := w.Select(1, cfg.lags)
		if err != nil {
			return nil, nil, nil, err
		}
		w = sel
		lags = make([]int, len(cfg.lags))
		for i, idx := range cfg.lags {
			lags[i] = m.Lags[idx]
		}
	}
	if cfg.features != nil {
		if err := checkSelection("feature", cfg.features, w.Dim[0]); err != nil {
			return nil, nil, nil, err
		}
		sel, err := w.Select(0, cfg.features)
		if err != nil {
			return nil, nil, nil, err
		}
		w = sel
	}

	flat := w.ColumnMajor()
	if m.Kind == Single {
		flat.Scale(1/float64(len(lags)), flat)
	}

	rows, nOut := flat.Dims()
	offset := 0
	if m.Bias {
		offset = 1
	}
	coef := mat.NewDense(offset+rows, nOut, nil)
	if m.Bias {
		coef.SetRow(0, m.Intercept)
	}
	coef.Slice(offset, offset+rows, 0, nOut).(*mat.Dense).Copy(flat)
	coef.Scale(1/m.Fs, coef)

	return coef, lags, cfg.features, nil
}

func checkSelection(name string, idx []int, n int) error {
	if len(idx) == 0 {
		return errors.NewConfigurationError("TRF.Predict", name, idx, "selection must not be empty")
	}
	for _, i := range idx {
		if i < 0 || i >= n {
			return errors.NewConfigurationError("TRF.Predict", name, i, "index out of range")
		}
	}
	return nil
}

func selectColumns(x mat.Matrix, cols []int) *mat.Dense {
	r, _ := x.Dims()
	out := mat.NewDense(r, len(cols), nil)
	for j, c := range cols {
		for i := 0; i < r; i++ {
			out.Set(i, j, x.At(i, c))
		}
	}
	return out
}

// target validates the ground truth of one trial and truncates it like the
// lag matrix when zero padding is disabled.
func (m *TRF) target(y, x mat.Matrix, lags []int, nOut int) (mat.Matrix, error) {
	if y == nil {
		return nil, errors.NewShapeError("TRF.Predict", "ground truth trial is missing")
	}
	ry, cy := y.Dims()
	rx, _ := x.Dims()
	if ry != rx {
		return nil, errors.NewDimensionError("TRF.Predict", rx, ry, 0)
	}
	if cy != nOut {
		return nil, errors.NewDimensionError("TRF.Predict", nOut, cy, 1)
	}
	if m.ZeroPad {
		return y, nil
	}
	minLag, maxLag := preprocessing.LagRange(lags)
	return preprocessing.Truncate(y, minLag, maxLag)
}

// collapse averages a trials × features score matrix over rows and/or
// columns.
func collapse(s *mat.Dense, trials, features bool) *mat.Dense {
	r, c := s.Dims()
	if trials {
		means := make([]float64, c)
		col := make([]float64, r)
		for j := 0; j < c; j++ {
			mat.Col(col, j, s)
			means[j] = floats.Sum(col) / float64(r)
		}
		s = mat.NewDense(1, c, means)
		r = 1
	}
	if features {
		means := make([]float64, r)
		for i := 0; i < r; i++ {
			means[i] = floats.Sum(s.RawRowView(i)) / float64(c)
		}
		s = mat.NewDense(r, 1, means)
	}
	return s
}
