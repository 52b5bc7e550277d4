//go:build noplot

package viz

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezoic/mtrf/pkg/errors"
)

func TestPlottingUnavailable(t *testing.T) {
	src := newFakeSource(t, true)
	path := filepath.Join(t.TempDir(), "weights.png")

	err := ForwardWeights(src, path)
	assert.True(t, errors.Is(err, ErrPlottingUnavailable))

	err = Topography(src, layout(3), path)
	assert.True(t, errors.Is(err, ErrPlottingUnavailable))
}
