// Package viz draws trained TRF weights with gonum/plot.
//
// ForwardWeights plots the weights of a forward model across time lags,
// either as a single curve or as a features × lags image. Topography colors
// channel positions by their weight. The output format follows the file
// extension (.png, .svg, .pdf, ...).
//
// Binaries built with the noplot tag do not link gonum/plot; every drawing
// function then returns ErrPlottingUnavailable.
package viz

import (
	"math"

	"github.com/ezoic/mtrf/core/tensor"
	"github.com/ezoic/mtrf/pkg/errors"
)

// ErrPlottingUnavailable is returned by drawing functions in builds without
// plotting support.
var ErrPlottingUnavailable = errors.New("mtrf: plotting is not available in this build (built with the noplot tag)")

// Source is a trained model whose weights can be drawn. Drawing never
// modifies it.
type Source interface {
	// WeightTensor returns input features × lags × output channels, or nil
	// before training.
	WeightTensor() *tensor.Tensor
	// LagTimes returns the lag axis in seconds.
	LagTimes() []float64
	// IsForward reports whether the model maps stimulus to response.
	IsForward() bool
}

// Mode combines weights across output channels.
type Mode string

const (
	// Average takes the mean over channels.
	Average Mode = "avg"
	// GFP takes the global field power, the standard deviation over channels.
	GFP Mode = "gfp"
)

// Style selects the forward weight plot.
type Style string

const (
	// Line draws one curve, the mean over stimulus features.
	Line Style = "line"
	// Image draws a features × lags color map.
	Image Style = "image"
)

// Position is the location of one channel on the scalp layout.
type Position struct {
	Name string
	X, Y float64
}

type config struct {
	mode       Mode
	style      Style
	window     bool
	tmin, tmax float64
	channels   []int
	feature    int
	title      string
	width      float64
	height     float64
}

// Option configures a plot.
type Option func(*config)

// WithMode sets how channels are combined (default Average).
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithStyle sets the forward weight plot style (default Line).
func WithStyle(s Style) Option {
	return func(c *config) { c.style = s }
}

// WithWindow restricts the plot to lags between tmin and tmax seconds. By
// default 50 ms are trimmed from both ends of the lag axis.
func WithWindow(tmin, tmax float64) Option {
	return func(c *config) {
		c.window = true
		c.tmin, c.tmax = tmin, tmax
	}
}

// WithChannels restricts the plot to the given output channels.
func WithChannels(idx ...int) Option {
	return func(c *config) { c.channels = append(make([]int, 0, len(idx)), idx...) }
}

// WithFeature draws the topography of one stimulus feature instead of the
// mean over features.
func WithFeature(i int) Option {
	return func(c *config) { c.feature = i }
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithSize sets the image size in inches (default 6 × 6).
func WithSize(width, height float64) Option {
	return func(c *config) { c.width, c.height = width, height }
}

func newConfig(opts []Option) config {
	c := config{mode: Average, style: Line, feature: -1, width: 6, height: 6}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// weightGrid holds features × lags values over a time axis.
type weightGrid struct {
	times  []float64
	values [][]float64
}

func checkSource(op string, src Source) (*tensor.Tensor, []float64, error) {
	if src == nil {
		return nil, nil, errors.NewValueError(op, "source is nil")
	}
	w := src.WeightTensor()
	times := src.LagTimes()
	if w == nil || len(times) == 0 {
		return nil, nil, errors.NewNotFittedError("TRF", op)
	}
	if len(times) != w.Dim[1] {
		return nil, nil, errors.NewDimensionError(op, w.Dim[1], len(times), 1)
	}
	return w, times, nil
}

// lagRange returns the half-open range of lag positions inside the window.
func lagRange(times []float64, cfg config) (start, stop int) {
	tmin, tmax := cfg.tmin, cfg.tmax
	if !cfg.window {
		tmin, tmax = times[0]+0.05, times[len(times)-1]-0.05
	}
	start = nearest(times, tmin)
	stop = nearest(times, tmax) + 1
	if stop <= start {
		return 0, len(times)
	}
	return start, stop
}

func nearest(times []float64, t float64) int {
	best := 0
	for i, v := range times {
		if math.Abs(v-t) < math.Abs(times[best]-t) {
			best = i
		}
	}
	return best
}

func channelSet(op string, cfg config, n int) ([]int, error) {
	if cfg.channels == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	if len(cfg.channels) == 0 {
		return nil, errors.NewConfigurationError(op, "channels", cfg.channels, "selection must not be empty")
	}
	for _, ch := range cfg.channels {
		if ch < 0 || ch >= n {
			return nil, errors.NewConfigurationError(op, "channels", ch, "channel out of range")
		}
	}
	return cfg.channels, nil
}

// combine reduces the channel values vals with the configured mode.
func combine(mode Mode, vals []float64) float64 {
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	if mode != GFP {
		return mean
	}
	ss := 0.0
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// forwardGrid prepares the features × lags values drawn by ForwardWeights.
func forwardGrid(src Source, cfg config) (*weightGrid, error) {
	const op = "viz.ForwardWeights"
	w, times, err := checkSource(op, src)
	if err != nil {
		return nil, err
	}
	if !src.IsForward() {
		return nil, errors.NewConfigurationError(op, "direction", "backward", "weights of decoding models are not interpretable")
	}
	if cfg.mode != Average && cfg.mode != GFP {
		return nil, errors.NewConfigurationError(op, "mode", string(cfg.mode), `must be "avg" or "gfp"`)
	}
	channels, err := channelSet(op, cfg, w.Dim[2])
	if err != nil {
		return nil, err
	}

	start, stop := lagRange(times, cfg)
	g := &weightGrid{times: append([]float64(nil), times[start:stop]...)}
	vals := make([]float64, len(channels))
	for f := 0; f < w.Dim[0]; f++ {
		row := make([]float64, stop-start)
		for l := start; l < stop; l++ {
			for i, ch := range channels {
				vals[i] = w.At(f, l, ch)
			}
			row[l-start] = combine(cfg.mode, vals)
		}
		g.values = append(g.values, row)
	}
	return g, nil
}

// curve averages the grid over features.
func (g *weightGrid) curve() []float64 {
	out := make([]float64, len(g.times))
	for _, row := range g.values {
		for j, v := range row {
			out[j] += v / float64(len(g.values))
		}
	}
	return out
}

func (g *weightGrid) Dims() (c, r int) { return len(g.times), len(g.values) }
func (g *weightGrid) Z(c, r int) float64 { return g.values[r][c] }
func (g *weightGrid) X(c int) float64    { return g.times[c] }
func (g *weightGrid) Y(r int) float64    { return float64(r) }

// topography returns one value per channel: the weight averaged over the
// time window and over features, or taken at a single feature.
func topography(src Source, layout []Position, cfg config) ([]float64, error) {
	const op = "viz.Topography"
	w, times, err := checkSource(op, src)
	if err != nil {
		return nil, err
	}
	if len(layout) != w.Dim[2] {
		return nil, errors.NewDimensionError(op, w.Dim[2], len(layout), 0)
	}
	features := []int{cfg.feature}
	if cfg.feature < 0 {
		features = make([]int, w.Dim[0])
		for i := range features {
			features[i] = i
		}
	} else if cfg.feature >= w.Dim[0] {
		return nil, errors.NewConfigurationError(op, "feature", cfg.feature, "feature out of range")
	}

	start, stop := lagRange(times, cfg)
	n := float64(len(features) * (stop - start))
	values := make([]float64, w.Dim[2])
	for ch := range values {
		for _, f := range features {
			for l := start; l < stop; l++ {
				values[ch] += w.At(f, l, ch) / n
			}
		}
	}
	return values, nil
}
