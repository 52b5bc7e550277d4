// Package trf estimates temporal response functions (TRFs).
//
// A TRF is a linear filter mapping a multichannel stimulus to a multichannel
// neural response over a window of time lags (a forward or encoding model),
// or mapping the response back to the stimulus (a backward or decoding
// model). Weights are obtained by regularized least squares on trial
// structured data sampled at a common rate:
//
//	m, err := trf.New(trf.WithDirection(trf.Forward))
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := m.Fit(stimulus, response, 100, 0, 0.3, []float64{0.1, 1, 10, 100})
//	pred, err := m.Predict(trf.Observed(test...), trf.Missing())
//
// Trained models can be combined with Add and Div, deep copied with Copy,
// and persisted with Save and Load.
package trf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/model"
	"github.com/ezoic/mtrf/core/tensor"
	"github.com/ezoic/mtrf/linear"
	"github.com/ezoic/mtrf/metrics"
	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
)

// Direction tells whether a model maps stimulus to response or back.
type Direction int

const (
	// Forward models predict the response from the stimulus.
	Forward Direction = 1
	// Backward models reconstruct the stimulus from the response.
	Backward Direction = -1
)

// Validate returns a ConfigurationError unless d is Forward or Backward.
func (d Direction) Validate() error {
	if d != Forward && d != Backward {
		return errors.NewConfigurationError("Direction", "direction", int(d), "must be 1 (forward) or -1 (backward)")
	}
	return nil
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Kind selects between one joint model over all lags and one model per lag.
type Kind string

const (
	// Multi fits all lags jointly.
	Multi Kind = "multi"
	// Single fits an independent model for every lag.
	Single Kind = "single"
)

// Validate returns a ConfigurationError for unknown kinds.
func (k Kind) Validate() error {
	if k != Multi && k != Single {
		return errors.NewConfigurationError("Kind", "kind", string(k), `must be "multi" or "single"`)
	}
	return nil
}

// Regularization is the penalty strength used to train a model. Exactly one
// form is meaningful for a given method: Lambda for ridge and tikhonov,
// Coefficients (one per feature band) for banded, or an explicit diagonal
// Matrix, which overrides both.
type Regularization struct {
	Lambda       float64
	Coefficients []float64
	Matrix       *mat.Dense
}

// Scalar returns a scalar regularization.
func Scalar(lambda float64) Regularization {
	return Regularization{Lambda: lambda}
}

// Banded returns one regularization coefficient per feature band.
func Banded(coefficients ...float64) Regularization {
	return Regularization{Coefficients: append([]float64(nil), coefficients...)}
}

// Diagonal returns a regularization given as an explicit diagonal matrix
// sized like the covariance matrices.
func Diagonal(m *mat.Dense) Regularization {
	return Regularization{Matrix: mat.DenseCopyOf(m)}
}

func (r Regularization) String() string {
	switch {
	case r.Matrix != nil:
		n, _ := r.Matrix.Dims()
		return fmt.Sprintf("diagonal(%d)", n)
	case r.Coefficients != nil:
		return fmt.Sprintf("%v", r.Coefficients)
	}
	return fmt.Sprintf("%g", r.Lambda)
}

func (r Regularization) clone() Regularization {
	c := Regularization{Lambda: r.Lambda}
	if r.Coefficients != nil {
		c.Coefficients = append([]float64(nil), r.Coefficients...)
	}
	if r.Matrix != nil {
		c.Matrix = mat.DenseCopyOf(r.Matrix)
	}
	return c
}

// TRF is a temporal response function model.
//
// Exported fields are the persisted state. Weights, Intercept, Times and
// Lags are nil until the model has been trained.
type TRF struct {
	State *model.StateManager // Public for gob encoding

	// Configuration
	Direction Direction
	Kind      Kind
	ZeroPad   bool
	Bias      bool
	Method    linear.Method
	Bands     []int // feature band sizes, banded method only

	// Learned parameters
	Weights        *tensor.Tensor // input features × lags × output features
	Intercept      []float64      // one per output feature
	Times          []float64      // lag axis in seconds
	Lags           []int          // lag axis in samples
	Fs             float64
	Regularization Regularization

	metric metrics.ColumnMetric
	logger log.Logger
}

// Option configures a TRF.
type Option func(*TRF)

// WithDirection sets the model direction (default Forward).
func WithDirection(d Direction) Option {
	return func(m *TRF) {
		m.Direction = d
	}
}

// WithKind sets the model kind (default Multi).
func WithKind(k Kind) Option {
	return func(m *TRF) {
		m.Kind = k
	}
}

// WithZeroPad sets whether lagged edges are zero padded (default true) or
// dropped.
func WithZeroPad(zeropad bool) Option {
	return func(m *TRF) {
		m.ZeroPad = zeropad
	}
}

// WithBias sets whether an unregularized intercept is estimated (default true).
func WithBias(bias bool) Option {
	return func(m *TRF) {
		m.Bias = bias
	}
}

// WithMethod sets the regularization method (default linear.Ridge).
func WithMethod(method linear.Method) Option {
	return func(m *TRF) {
		m.Method = method
	}
}

// WithBands sets the sizes of the contiguous feature bands used by banded
// regularization, in input column order.
func WithBands(bands ...int) Option {
	return func(m *TRF) {
		m.Bands = append([]int(nil), bands...)
	}
}

// WithMetric replaces Pearson correlation as the accuracy score reported by
// Predict and maximized by Fit.
func WithMetric(metric metrics.ColumnMetric) Option {
	return func(m *TRF) {
		m.metric = metric
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(m *TRF) {
		m.logger = logger
	}
}

// New creates an untrained TRF. It returns a ConfigurationError when an
// option holds an invalid value.
//
// Example:
//
//	decoder, err := trf.New(
//		trf.WithDirection(trf.Backward),
//		trf.WithMethod(linear.Tikhonov),
//	)
func New(opts ...Option) (*TRF, error) {
	m := &TRF{
		State:     model.NewStateManager(),
		Direction: Forward,
		Kind:      Multi,
		ZeroPad:   true,
		Bias:      true,
		Method:    linear.Ridge,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	if m.logger == nil {
		m.logger = defaultLogger()
	}
	return m, nil
}

func defaultLogger() log.Logger {
	return log.GetLoggerWithName("trf").With(
		log.ModelNameKey, "TRF",
		log.ComponentKey, "trf",
	)
}

func (m *TRF) validate() error {
	if err := m.Direction.Validate(); err != nil {
		return err
	}
	if err := m.Kind.Validate(); err != nil {
		return err
	}
	if err := m.Method.Validate(); err != nil {
		return err
	}
	for _, b := range m.Bands {
		if b <= 0 {
			return errors.NewConfigurationError("New", "bands", m.Bands, "band sizes must be positive")
		}
	}
	return nil
}

func (m *TRF) log() log.Logger {
	if m.logger == nil {
		return log.Nop()
	}
	return m.logger
}

func (m *TRF) accuracy() metrics.ColumnMetric {
	if m.metric == nil {
		return metrics.PearsonColumns
	}
	return m.metric
}

// IsFitted reports whether the model has been trained.
func (m *TRF) IsFitted() bool {
	return m.State != nil && m.State.IsFitted() && m.Weights != nil
}

// Copy returns a deep copy of m. The copy shares no array with m.
func (m *TRF) Copy() *TRF {
	c := &TRF{
		State:          model.NewStateManager(),
		Direction:      m.Direction,
		Kind:           m.Kind,
		ZeroPad:        m.ZeroPad,
		Bias:           m.Bias,
		Method:         m.Method,
		Fs:             m.Fs,
		Regularization: m.Regularization.clone(),
		metric:         m.metric,
		logger:         m.logger,
	}
	if m.State != nil {
		c.State = m.State.Clone()
	}
	if m.Bands != nil {
		c.Bands = append([]int(nil), m.Bands...)
	}
	if m.Weights != nil {
		c.Weights = m.Weights.Copy()
	}
	if m.Intercept != nil {
		c.Intercept = append([]float64(nil), m.Intercept...)
	}
	if m.Times != nil {
		c.Times = append([]float64(nil), m.Times...)
	}
	if m.Lags != nil {
		c.Lags = append([]int(nil), m.Lags...)
	}
	return c
}

// Add returns a new model whose weights and intercept are the elementwise
// sums of those of m and o. An untrained receiver acts as zero, so summing
// a list of models can start from a model returned by New. Both models must
// share direction and kind.
func (m *TRF) Add(o *TRF) (*TRF, error) {
	if o == nil || !o.IsFitted() {
		return nil, errors.NewStateError("TRF.Add", "can only add a trained model")
	}
	if m.Direction != o.Direction || m.Kind != o.Kind {
		return nil, errors.NewConfigurationError("TRF.Add", "direction/kind",
			fmt.Sprintf("%s/%s", o.Direction, o.Kind), "added models must be of the same kind and direction")
	}
	if !m.IsFitted() {
		return o.Copy(), nil
	}

	sum := m.Copy()
	if err := sum.Weights.Add(o.Weights); err != nil {
		return nil, err
	}
	if len(sum.Intercept) != len(o.Intercept) {
		return nil, errors.NewDimensionError("TRF.Add", len(sum.Intercept), len(o.Intercept), 0)
	}
	for i, v := range o.Intercept {
		sum.Intercept[i] += v
	}
	return sum, nil
}

// Div returns a copy of m with weights and intercept divided by n.
func (m *TRF) Div(n float64) (*TRF, error) {
	if !m.IsFitted() {
		return nil, errors.NewStateError("TRF.Div", "can only divide a trained model")
	}
	if n == 0 {
		return nil, errors.NewValueError("TRF.Div", "division by zero")
	}

	q := m.Copy()
	for i := range q.Weights.Data {
		q.Weights.Data[i] /= n
	}
	for i := range q.Intercept {
		q.Intercept[i] /= n
	}
	return q, nil
}

// Save writes the trained model to path. The parent directory must exist.
func (m *TRF) Save(path string) error {
	if !m.IsFitted() {
		return errors.NewStateError("TRF.Save", "can't save an untrained model")
	}
	return model.SaveModel(m, path)
}

// Load replaces the state of m with the model stored at path. The metric
// and logger of m are kept.
func (m *TRF) Load(path string) error {
	var loaded TRF
	if err := model.LoadModel(&loaded, path); err != nil {
		return err
	}
	if loaded.State == nil {
		loaded.State = model.NewStateManager()
	}
	if err := loaded.validate(); err != nil {
		return errors.Wrapf(err, "invalid model in %s", path)
	}

	loaded.metric = m.metric
	loaded.logger = m.logger
	*m = loaded
	return nil
}

// WeightTensor returns the fitted weights, or nil before training.
func (m *TRF) WeightTensor() *tensor.Tensor {
	return m.Weights
}

// LagTimes returns the fitted lag axis in seconds.
func (m *TRF) LagTimes() []float64 {
	return m.Times
}

// IsForward reports whether m is an encoding model.
func (m *TRF) IsForward() bool {
	return m.Direction == Forward
}
