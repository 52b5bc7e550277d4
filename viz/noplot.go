//go:build noplot

package viz

// ForwardWeights validates its arguments and returns ErrPlottingUnavailable.
func ForwardWeights(src Source, path string, opts ...Option) error {
	if _, err := forwardGrid(src, newConfig(opts)); err != nil {
		return err
	}
	return ErrPlottingUnavailable
}

// Topography validates its arguments and returns ErrPlottingUnavailable.
func Topography(src Source, layout []Position, path string, opts ...Option) error {
	if _, err := topography(src, layout, newConfig(opts)); err != nil {
		return err
	}
	return ErrPlottingUnavailable
}
