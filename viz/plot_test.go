//go:build !noplot

package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/mtrf/pkg/errors"
)

func requireImage(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestForwardWeightsRenders(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource(t, true)

	tests := []struct {
		name string
		file string
		opts []Option
	}{
		{"line", "line.png", nil},
		{"gfp", "gfp.svg", []Option{WithMode(GFP), WithTitle("GFP")}},
		{"image", "image.png", []Option{WithStyle(Image), WithWindow(0, 0.2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, ForwardWeights(src, path, tt.opts...))
			requireImage(t, path)
		})
	}

	err := ForwardWeights(src, filepath.Join(dir, "bad.png"), WithStyle("contour"))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestTopographyRenders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topo.png")
	require.NoError(t, Topography(newFakeSource(t, true), layout(3), path, WithSize(4, 4)))
	requireImage(t, path)
}
