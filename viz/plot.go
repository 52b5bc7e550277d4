//go:build !noplot

package viz

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ezoic/mtrf/pkg/errors"
)

// ForwardWeights draws the weights of a forward model over time lags and
// saves the figure to path.
//
// In Line style the weights are combined across channels (see Mode) and
// averaged over stimulus features. In Image style every stimulus feature is
// one row of a color map.
//
// Example:
//
//	err := viz.ForwardWeights(model, "weights.png", viz.WithMode(viz.GFP))
func ForwardWeights(src Source, path string, opts ...Option) error {
	cfg := newConfig(opts)
	grid, err := forwardGrid(src, cfg)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = "Time lag [s]"

	switch cfg.style {
	case Line:
		p.Y.Label.Text = "Weight [a.u.]"
		curve := grid.curve()
		pts := make(plotter.XYs, len(curve))
		for i, v := range curve {
			pts[i].X = grid.times[i]
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "failed to create weight curve")
		}
		line.Width = vg.Points(1.5)
		p.Add(line, plotter.NewGrid())
	case Image:
		p.Y.Label.Text = "Stimulus feature"
		cmap := moreland.SmoothBlueRed()
		p.Add(plotter.NewHeatMap(grid, cmap.Palette(255)))
	default:
		return errors.NewConfigurationError("viz.ForwardWeights", "style", string(cfg.style), `must be "line" or "image"`)
	}

	return save(p, cfg, path)
}

// Topography draws every channel at its layout position, colored by its
// weight, and saves the figure to path. layout must hold one position per
// output channel, in channel order.
func Topography(src Source, layout []Position, path string, opts ...Option) error {
	cfg := newConfig(opts)
	values, err := topography(src, layout, cfg)
	if err != nil {
		return err
	}

	limit := 0.0
	for _, v := range values {
		limit = math.Max(limit, math.Abs(v))
	}
	if limit == 0 {
		limit = 1
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-limit)
	cmap.SetMax(limit)

	pts := make(plotter.XYs, len(layout))
	labels := make([]string, len(layout))
	for i, pos := range layout {
		pts[i].X, pts[i].Y = pos.X, pos.Y
		labels[i] = pos.Name
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "failed to create channel markers")
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		style := draw.GlyphStyle{Radius: vg.Points(6), Shape: draw.CircleGlyph{}}
		if c, err := cmap.At(values[i]); err == nil {
			style.Color = c
		}
		return style
	}

	p := plot.New()
	p.Title.Text = cfg.title
	p.HideAxes()
	p.Add(scatter)

	if hasNames(labels) {
		names, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
		if err != nil {
			return errors.Wrap(err, "failed to create channel labels")
		}
		p.Add(names)
	}

	return save(p, cfg, path)
}

func hasNames(labels []string) bool {
	for _, l := range labels {
		if l != "" {
			return true
		}
	}
	return false
}

func save(p *plot.Plot, cfg config, path string) error {
	if err := p.Save(vg.Length(cfg.width)*vg.Inch, vg.Length(cfg.height)*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}
