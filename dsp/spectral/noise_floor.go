package spectral

import (
	"fmt"
	"math"
	"sort"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// DefaultNoiseFloorPercentile is the percentile used when none is configured.
const DefaultNoiseFloorPercentile = 10.0

// NoiseFloorEstimator estimates the noise floor of a PSD vector as a low
// percentile of its values. A low percentile tracks the quiet bins while
// staying insensitive to strong narrowband occupants.
type NoiseFloorEstimator struct {
	percentile float64
}

// NewNoiseFloorEstimator creates an estimator. The percentile must be in
// [0, 100]; 0 degenerates to the minimum and 100 to the maximum.
func NewNoiseFloorEstimator(percentile float64) (*NoiseFloorEstimator, error) {
	if percentile < 0 || percentile > 100 {
		return nil, rf.NewConfigError("dsp.noise_floor_percentile",
			fmt.Sprintf("percentile must be in [0, 100]: %g", percentile))
	}
	return &NoiseFloorEstimator{percentile: percentile}, nil
}

// Estimate returns the configured percentile of psdDB using linear
// interpolation between closest ranks, h = (n-1)*q + 1, the default rule of
// the common numerical libraries. The input is not modified.
func (nf *NoiseFloorEstimator) Estimate(psdDB []float64) (float64, error) {
	n := len(psdDB)
	if n == 0 {
		return 0, fmt.Errorf("empty PSD")
	}
	if n == 1 {
		return psdDB[0], nil
	}

	values := make([]float64, n)
	copy(values, psdDB)
	sort.Float64s(values)

	q := nf.percentile / 100.0
	h := float64(n-1)*q + 1.0

	if h <= 1.0 {
		return values[0], nil
	}
	if h >= float64(n) {
		return values[n-1], nil
	}

	lower := int(math.Floor(h)) - 1
	upper := int(math.Ceil(h)) - 1
	if lower == upper {
		return values[lower], nil
	}

	fraction := h - math.Floor(h)
	return values[lower] + fraction*(values[upper]-values[lower]), nil
}

// Percentile returns the configured percentile.
func (nf *NoiseFloorEstimator) Percentile() float64 {
	return nf.percentile
}
