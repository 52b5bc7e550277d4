package trf

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/parallel"
	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/pkg/log"
)

// LeaveOneOut requests one fold per trial.
const LeaveOneOut = -1

const defaultFolds = 5

type cvConfig struct {
	k       int
	seed    *uint64
	workers int
}

func newCVConfig(opts []CVOption) cvConfig {
	cfg := cvConfig{k: defaultFolds}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// CVOption configures cross-validation.
type CVOption func(*cvConfig)

// WithFolds sets the number of folds (default 5). LeaveOneOut or a value
// equal to the number of trials holds out one trial per fold.
func WithFolds(k int) CVOption {
	return func(c *cvConfig) {
		c.k = k
	}
}

// WithSeed shuffles the trials with a seeded generator before they are
// split into folds. Without a seed the trial order is kept.
func WithSeed(seed uint64) CVOption {
	return func(c *cvConfig) {
		c.seed = &seed
	}
}

// WithWorkers bounds the number of folds trained concurrently. A
// non-positive value uses one worker per CPU.
func WithWorkers(n int) CVOption {
	return func(c *cvConfig) {
		c.workers = n
	}
}

// Folds partitions the indices 0..n-1 into k non-overlapping folds. The
// first n mod k folds hold one index more than the others. With a seed the
// indices are permuted first; the same seed always yields the same folds.
func Folds(n, k int, seed *uint64) ([][]int, error) {
	if k == LeaveOneOut {
		k = n
	}
	if k < 2 || k > n {
		return nil, errors.NewConfigurationError("Folds", "k", k,
			"number of folds must be between 2 and the number of trials")
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if seed != nil {
		rng := rand.New(rand.NewPCG(*seed, *seed))
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	folds := make([][]int, k)
	size, extra := n/k, n%k
	start := 0
	for f := range folds {
		end := start + size
		if f < extra {
			end++
		}
		folds[f] = idx[start:end:end]
		start = end
	}
	return folds, nil
}

type foldScore struct {
	correlation float64
	mse         float64
	err         error
}

// CrossValidate estimates the out-of-sample accuracy of m for one
// regularization value. For every fold an independent copy of m is trained
// on the remaining trials and scored on the held-out trials, with scores
// averaged over trials and output features. The returned correlation and
// mse are the means over folds. m itself is not modified.
//
// Folds are trained concurrently but reduced in fold order, so identical
// inputs and seed give identical results.
func CrossValidate(m *TRF, stimulus, response []mat.Matrix, fs, tmin, tmax float64, reg Regularization, opts ...CVOption) (correlation, mse float64, err error) {
	defer errors.Recover(&err, "CrossValidate")

	if len(stimulus) != len(response) {
		return 0, 0, errors.NewShapeErrorf("CrossValidate", "got %d stimulus trials but %d response trials",
			len(stimulus), len(response))
	}
	cfg := newCVConfig(opts)
	folds, err := Folds(len(stimulus), cfg.k, cfg.seed)
	if err != nil {
		return 0, 0, err
	}

	startTime := time.Now()
	scores := make([]foldScore, len(folds))
	parallel.ForEach(len(folds), cfg.workers, func(f int) {
		scores[f] = runFold(m, stimulus, response, folds, f, fs, tmin, tmax, reg)
	})

	for f, s := range scores {
		if s.err != nil {
			return 0, 0, errors.Wrapf(s.err, "fold %d", f)
		}
		correlation += s.correlation
		mse += s.mse
	}
	correlation /= float64(len(folds))
	mse /= float64(len(folds))

	m.log().Debug("Cross-validation completed",
		log.OperationKey, log.OperationCrossValidate,
		log.PhaseKey, log.PhaseSearch,
		log.FoldKey, len(folds),
		log.RegularizationKey, reg.String(),
		log.CorrelationKey, correlation,
		log.ErrorKey, mse,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
	)
	return correlation, mse, nil
}

func runFold(m *TRF, stimulus, response []mat.Matrix, folds [][]int, f int, fs, tmin, tmax float64, reg Regularization) (s foldScore) {
	defer errors.Recover(&s.err, "CrossValidate")

	held := make(map[int]bool, len(folds[f]))
	for _, i := range folds[f] {
		held[i] = true
	}
	var trainX, trainY, testX, testY []mat.Matrix
	for i := range stimulus {
		if held[i] {
			testX = append(testX, stimulus[i])
			testY = append(testY, response[i])
		} else {
			trainX = append(trainX, stimulus[i])
			trainY = append(trainY, response[i])
		}
	}

	fold := m.Copy()
	if s.err = fold.Train(trainX, trainY, fs, tmin, tmax, reg); s.err != nil {
		return s
	}
	pred, err := fold.Predict(Observed(testX...), Observed(testY...))
	if err != nil {
		s.err = err
		return s
	}
	if s.correlation, s.err = pred.ScalarCorrelation(); s.err != nil {
		return s
	}
	s.mse, s.err = pred.ScalarError()
	return s
}
