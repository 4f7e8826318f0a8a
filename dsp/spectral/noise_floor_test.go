package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

func TestNoiseFloorValidation(t *testing.T) {
	for _, pct := range []float64{0, 10, 50, 100} {
		_, err := NewNoiseFloorEstimator(pct)
		assert.NoError(t, err, "percentile %g", pct)
	}
	for _, pct := range []float64{-1, 100.1} {
		_, err := NewNoiseFloorEstimator(pct)
		require.Error(t, err, "percentile %g", pct)
		assert.True(t, rf.IsConfigError(err))
	}
}

func TestNoiseFloorExtremes(t *testing.T) {
	data := []float64{-80, -120, -95, -100, -110}

	nf0, err := NewNoiseFloorEstimator(0)
	require.NoError(t, err)
	v, err := nf0.Estimate(data)
	require.NoError(t, err)
	assert.InDelta(t, -120.0, v, 1e-12)

	nf100, err := NewNoiseFloorEstimator(100)
	require.NoError(t, err)
	v, err = nf100.Estimate(data)
	require.NoError(t, err)
	assert.InDelta(t, -80.0, v, 1e-12)
}

func TestNoiseFloorLinearInterpolation(t *testing.T) {
	nf, err := NewNoiseFloorEstimator(10)
	require.NoError(t, err)

	// Sorted: [0, 10]; h = (2-1)*0.1 + 1 = 1.1 -> 0 + 0.1*(10-0) = 1.
	v, err := nf.Estimate([]float64{10, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	// Median of 1..5 is the middle element.
	nf50, err := NewNoiseFloorEstimator(50)
	require.NoError(t, err)
	v, err = nf50.Estimate([]float64{5, 3, 1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
}

func TestNoiseFloorConstantVector(t *testing.T) {
	nf, err := NewNoiseFloorEstimator(10)
	require.NoError(t, err)

	v, err := nf.Estimate([]float64{-120, -120, -120, -120})
	require.NoError(t, err)
	assert.InDelta(t, -120.0, v, 1e-12)
}

func TestNoiseFloorDoesNotMutateInput(t *testing.T) {
	nf, err := NewNoiseFloorEstimator(50)
	require.NoError(t, err)

	data := []float64{3, 1, 2}
	_, err = nf.Estimate(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestNoiseFloorEdgeInputs(t *testing.T) {
	nf, err := NewNoiseFloorEstimator(10)
	require.NoError(t, err)

	_, err = nf.Estimate(nil)
	assert.Error(t, err)

	v, err := nf.Estimate([]float64{-97.5})
	require.NoError(t, err)
	assert.InDelta(t, -97.5, v, 1e-12)
}
