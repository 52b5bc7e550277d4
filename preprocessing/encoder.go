package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/core/model"
	"github.com/ezoic/mtrf/pkg/errors"
)

// Silence is the label of a sample without an event.
const Silence = ""

// OneHotEncoder turns per-sample categorical labels, such as the phoneme
// heard at each sample, into a samples × categories stimulus matrix with a
// 1 in the column of the sample's category. Samples labelled Silence, and
// labels unseen during Fit, encode as all zeros.
type OneHotEncoder struct {
	State *model.StateManager

	// Categories lists the known labels in sorted order.
	Categories []string

	// CategoryToIdx maps a label to its column.
	CategoryToIdx map[string]int
}

// NewOneHotEncoder creates an unfitted OneHotEncoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{State: model.NewStateManager()}
}

// IsFitted reports whether Fit has succeeded.
func (e *OneHotEncoder) IsFitted() bool {
	return e.State != nil && e.State.IsFitted()
}

// Fit collects the distinct labels of every trial.
func (e *OneHotEncoder) Fit(trials [][]string) (err error) {
	defer errors.Recover(&err, "OneHotEncoder.Fit")
	if len(trials) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "no trials", errors.ErrEmptyData)
	}

	seen := make(map[string]bool)
	for _, labels := range trials {
		for _, l := range labels {
			if l != Silence {
				seen[l] = true
			}
		}
	}
	if len(seen) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "no labelled samples", errors.ErrEmptyData)
	}

	categories := make([]string, 0, len(seen))
	for l := range seen {
		categories = append(categories, l)
	}
	sort.Strings(categories)

	idx := make(map[string]int, len(categories))
	for i, l := range categories {
		idx[l] = i
	}

	if e.State == nil {
		e.State = model.NewStateManager()
	}
	e.Categories = categories
	e.CategoryToIdx = idx
	e.State.SetDimensions(1, len(categories), len(trials))
	e.State.SetFitted()
	return nil
}

// Transform encodes one trial.
func (e *OneHotEncoder) Transform(labels []string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(labels) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty trial", errors.ErrEmptyData)
	}

	out := mat.NewDense(len(labels), len(e.Categories), nil)
	for t, l := range labels {
		if j, ok := e.CategoryToIdx[l]; ok {
			out.Set(t, j, 1)
		}
	}
	return out, nil
}

// TransformTrials encodes every trial, ready to be used as a stimulus.
func (e *OneHotEncoder) TransformTrials(trials [][]string) ([]mat.Matrix, error) {
	out := make([]mat.Matrix, len(trials))
	for i, labels := range trials {
		x, err := e.Transform(labels)
		if err != nil {
			return nil, errors.Wrapf(err, "trial %d", i)
		}
		out[i] = x
	}
	return out, nil
}

// FitTransform fits the encoder on trials and encodes them.
func (e *OneHotEncoder) FitTransform(trials [][]string) ([]mat.Matrix, error) {
	if err := e.Fit(trials); err != nil {
		return nil, err
	}
	return e.TransformTrials(trials)
}

// FeatureNames returns the name of every encoded column, prefix_label.
func (e *OneHotEncoder) FeatureNames(prefix string) []string {
	if !e.IsFitted() {
		return nil
	}
	names := make([]string, len(e.Categories))
	for i, l := range e.Categories {
		names[i] = fmt.Sprintf("%s_%s", prefix, l)
	}
	return names
}
