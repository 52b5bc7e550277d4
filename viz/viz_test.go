package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/mtrf/core/tensor"
	"github.com/ezoic/mtrf/pkg/errors"
)

type fakeSource struct {
	w       *tensor.Tensor
	times   []float64
	forward bool
}

func (s *fakeSource) WeightTensor() *tensor.Tensor { return s.w }
func (s *fakeSource) LagTimes() []float64           { return s.times }
func (s *fakeSource) IsForward() bool               { return s.forward }

// newFakeSource returns 2 features × 21 lags (0..0.2 s) × 3 channels with
// w(f, l, c) = (f+1)·(c+1)·l.
func newFakeSource(t *testing.T, forward bool) *fakeSource {
	t.Helper()
	w, err := tensor.NewZeros(2, 21, 3)
	require.NoError(t, err)
	times := make([]float64, 21)
	for l := range times {
		times[l] = float64(l) / 100
		for f := 0; f < 2; f++ {
			for c := 0; c < 3; c++ {
				w.Set(f, l, c, float64((f+1)*(c+1)*l))
			}
		}
	}
	return &fakeSource{w: w, times: times, forward: forward}
}

func layout(n int) []Position {
	pos := make([]Position, n)
	for i := range pos {
		pos[i] = Position{Name: string(rune('A' + i)), X: float64(i), Y: float64(i % 2)}
	}
	return pos
}

func TestForwardGridDefaultWindow(t *testing.T) {
	g, err := forwardGrid(newFakeSource(t, true), newConfig(nil))
	require.NoError(t, err)

	// 50 ms trimmed from both ends
	require.Len(t, g.times, 11)
	assert.InDelta(t, 0.05, g.times[0], 1e-12)
	assert.InDelta(t, 0.15, g.times[10], 1e-12)
	require.Len(t, g.values, 2)

	// mean over channels of (f+1)(c+1)l is 2(f+1)l
	assert.InDelta(t, 2*5.0, g.values[0][0], 1e-12)
	assert.InDelta(t, 4*15.0, g.values[1][10], 1e-12)

	// the curve averages features: 3l
	assert.InDelta(t, 3*5.0, g.curve()[0], 1e-12)
}

func TestForwardGridModesAndSelection(t *testing.T) {
	src := newFakeSource(t, true)

	g, err := forwardGrid(src, newConfig([]Option{WithWindow(0, 0.2), WithMode(GFP)}))
	require.NoError(t, err)
	require.Len(t, g.times, 21)
	// population std of l·{1,2,3} is l·sqrt(2/3)
	assert.InDelta(t, 10*0.816496580927726, g.values[0][10], 1e-9)

	g, err = forwardGrid(src, newConfig([]Option{WithWindow(0, 0.2), WithChannels(2)}))
	require.NoError(t, err)
	assert.InDelta(t, 3*4.0, g.values[0][4], 1e-12)

	_, err = forwardGrid(src, newConfig([]Option{WithChannels(3)}))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	_, err = forwardGrid(src, newConfig([]Option{WithMode("max")}))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestForwardGridErrors(t *testing.T) {
	_, err := forwardGrid(newFakeSource(t, false), newConfig(nil))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = forwardGrid(&fakeSource{forward: true}, newConfig(nil))
	assert.True(t, errors.Is(err, errors.ErrState))

	_, err = forwardGrid(nil, newConfig(nil))
	assert.Error(t, err)
}

func TestShortLagAxisUsesAllLags(t *testing.T) {
	w, err := tensor.NewZeros(1, 3, 1)
	require.NoError(t, err)
	src := &fakeSource{w: w, times: []float64{0, 0.01, 0.02}, forward: true}

	g, err := forwardGrid(src, newConfig(nil))
	require.NoError(t, err)
	assert.Len(t, g.times, 3)
}

func TestTopographyValues(t *testing.T) {
	src := newFakeSource(t, true)

	values, err := topography(src, layout(3), newConfig([]Option{WithWindow(0.1, 0.1)}))
	require.NoError(t, err)
	// lag 10, mean over features of (f+1)(c+1)·10 is 15(c+1)
	assert.InDeltaSlice(t, []float64{15, 30, 45}, values, 1e-12)

	values, err = topography(src, layout(3), newConfig([]Option{WithWindow(0.1, 0.1), WithFeature(1)}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{20, 40, 60}, values, 1e-12)

	_, err = topography(src, layout(2), newConfig(nil))
	assert.True(t, errors.Is(err, errors.ErrShape))
	_, err = topography(src, layout(3), newConfig([]Option{WithFeature(2)}))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
