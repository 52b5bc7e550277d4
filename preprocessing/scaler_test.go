package preprocessing_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/mtrf/pkg/errors"
	"github.com/ezoic/mtrf/preprocessing"
)

const epsilon = 1e-10 // Tolerance for floating-point comparisons

func TestStandardScaler_PoolsTrials(t *testing.T) {
	// Feature 1 over both trials: [1, 2, 3] -> mean=2, std=0.816
	// Feature 2 over both trials: [4, 5, 6] -> mean=5, std=0.816
	trials := []mat.Matrix{
		mat.NewDense(2, 2, []float64{1, 4, 2, 5}),
		mat.NewDense(1, 2, []float64{3, 6}),
	}

	scaler := preprocessing.NewStandardScaler(true, true)
	if err := scaler.Fit(trials); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expectedMean := []float64{2.0, 5.0}
	expectedStd := []float64{0.816496580927726, 0.816496580927726}
	for i := range expectedMean {
		if math.Abs(scaler.Mean[i]-expectedMean[i]) > epsilon {
			t.Errorf("Mean[%d]: expected %f, got %f", i, expectedMean[i], scaler.Mean[i])
		}
		if math.Abs(scaler.Scale[i]-expectedStd[i]) > epsilon {
			t.Errorf("Scale[%d]: expected %f, got %f", i, expectedStd[i], scaler.Scale[i])
		}
	}

	scaled, err := scaler.Transform(trials)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(scaled) != 2 {
		t.Fatalf("Expected 2 trials, got %d", len(scaled))
	}
	if r, _ := scaled[1].Dims(); r != 1 {
		t.Errorf("Expected the second trial to keep 1 sample, got %d", r)
	}
	want := 1 / 0.816496580927726
	if math.Abs(scaled[0].At(0, 0)+want) > 1e-9 || math.Abs(scaled[1].At(0, 1)-want) > 1e-9 {
		t.Errorf("Unexpected standardized values: %v, %v", scaled[0].At(0, 0), scaled[1].At(0, 1))
	}
}

func TestStandardScaler_ConstantFeature(t *testing.T) {
	trials := []mat.Matrix{mat.NewDense(3, 1, []float64{7, 7, 7})}

	scaler := preprocessing.NewStandardScaler(true, true)
	scaled, err := scaler.FitTransform(trials)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if scaler.Scale[0] != 1 {
		t.Errorf("Expected scale 1 for a constant feature, got %f", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if scaled[0].At(i, 0) != 0 {
			t.Errorf("Expected 0 at row %d, got %f", i, scaled[0].At(i, 0))
		}
	}
}

func TestStandardScaler_InverseTransform(t *testing.T) {
	trials := []mat.Matrix{
		mat.NewDense(3, 2, []float64{1, -2, 4, 0, 9, 2}),
		mat.NewDense(2, 2, []float64{-3, 5, 0.5, 1}),
	}

	scaler := preprocessing.NewStandardScaler(true, true)
	scaled, err := scaler.FitTransform(trials)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	restored, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	for k := range trials {
		if !mat.EqualApprox(trials[k], restored[k], 1e-12) {
			t.Errorf("Trial %d not restored: %v", k, mat.Formatted(restored[k]))
		}
	}
}

func TestStandardScaler_WithoutMean(t *testing.T) {
	trials := []mat.Matrix{mat.NewDense(2, 1, []float64{1, 3})}

	scaler := preprocessing.NewStandardScaler(false, true)
	if err := scaler.Fit(trials); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if scaler.Mean[0] != 0 {
		t.Errorf("Expected mean 0, got %f", scaler.Mean[0])
	}
	// Deviation from zero: sqrt((1 + 9) / 2)
	if math.Abs(scaler.Scale[0]-math.Sqrt(5)) > epsilon {
		t.Errorf("Expected scale sqrt(5), got %f", scaler.Scale[0])
	}
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := preprocessing.NewStandardScaler(true, true)

	if _, err := scaler.Transform([]mat.Matrix{mat.NewDense(1, 1, nil)}); !errors.Is(err, errors.ErrState) {
		t.Errorf("Expected not fitted error, got %v", err)
	}
	if err := scaler.Fit(nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Expected empty data error, got %v", err)
	}
	if err := scaler.Fit([]mat.Matrix{mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil)}); !errors.Is(err, errors.ErrShape) {
		t.Errorf("Expected shape error, got %v", err)
	}

	if err := scaler.Fit([]mat.Matrix{mat.NewDense(2, 2, []float64{1, 2, 3, 4})}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := scaler.Transform([]mat.Matrix{mat.NewDense(2, 3, nil)}); !errors.Is(err, errors.ErrShape) {
		t.Errorf("Expected dimension error, got %v", err)
	}
}
