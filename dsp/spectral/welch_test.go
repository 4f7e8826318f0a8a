package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

func TestEstimateAverageHalvesLinearPower(t *testing.T) {
	const n = 256
	const fs = 1e6
	est := NewEstimator(hannWindow(t, n))

	tone := toneFrame(n, 32, fs)
	silent := frameOf(make([]complex128, n), fs)

	single, err := est.Estimate(tone)
	require.NoError(t, err)

	avg, err := est.EstimateAverage([]*rf.Frame{tone, silent})
	require.NoError(t, err)

	peak := n/2 + 32
	assert.InDelta(t, single.PSDLinear[peak]/2, avg.PSDLinear[peak], single.PSDLinear[peak]*1e-9)
	assert.Equal(t, single.BinWidthHz, avg.BinWidthHz)
	assert.InDeltaSlice(t, single.FreqBinsHz, avg.FreqBinsHz, 1e-9)
}

func TestEstimateAverageSingleFrameMatchesEstimate(t *testing.T) {
	const n = 128
	est := NewEstimator(hannWindow(t, n))
	tone := toneFrame(n, 10, 2e6)

	single, err := est.Estimate(tone)
	require.NoError(t, err)
	avg, err := est.EstimateAverage([]*rf.Frame{tone})
	require.NoError(t, err)

	assert.InDeltaSlice(t, single.PSDLinear, avg.PSDLinear, 1e-18)
	assert.InDeltaSlice(t, single.PSDDB, avg.PSDDB, 1e-9)
}

func TestEstimateAverageRejectsMixedRates(t *testing.T) {
	const n = 64
	est := NewEstimator(hannWindow(t, n))

	a := frameOf(make([]complex128, n), 1e6)
	b := frameOf(make([]complex128, n), 2e6)

	_, err := est.EstimateAverage([]*rf.Frame{a, b})
	assert.Error(t, err)
}

func TestEstimateAverageEmpty(t *testing.T) {
	est := NewEstimator(hannWindow(t, 64))
	_, err := est.EstimateAverage(nil)
	assert.Error(t, err)
}
