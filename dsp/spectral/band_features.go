package spectral

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// DefaultOccupancyThresholdDB is the margin above the noise floor a bin must
// exceed to count as occupied.
const DefaultOccupancyThresholdDB = 6.0

// BandFeatures holds the per-band outputs for one spectrum, ordered exactly
// as the configured band list.
type BandFeatures struct {
	BandpowerDB  []float64 `json:"bandpower_db"`
	OccupancyPct []float64 `json:"occupancy_pct"`
}

// BandFeatureExtractor computes integrated power and occupancy for a fixed
// list of absolute-frequency bands against baseband spectra. Band edges are
// converted to baseband by subtracting the capture center frequency; both
// edges are inclusive.
type BandFeatureExtractor struct {
	bands       []rf.Band
	thresholdDB float64
	floorDB     float64
}

// NewBandFeatureExtractor validates the band list and creates an extractor.
// thresholdDB is the occupancy margin above the noise floor and floorDB the
// dB floor used for bandpower conversion.
func NewBandFeatureExtractor(bands []rf.Band, thresholdDB, floorDB float64) (*BandFeatureExtractor, error) {
	for i, band := range bands {
		if err := band.Validate(); err != nil {
			return nil, rf.NewConfigErrorWithCause(
				fmt.Sprintf("dsp.bands[%d]", i), band.Name, err)
		}
	}

	bandsCopy := make([]rf.Band, len(bands))
	copy(bandsCopy, bands)

	return &BandFeatureExtractor{
		bands:       bandsCopy,
		thresholdDB: thresholdDB,
		floorDB:     floorDB,
	}, nil
}

// Extract computes bandpower and occupancy for every configured band.
// Bandpower integrates the raw linear PSD over the in-band bins
// (sum * bin width) and converts to dB with the floor clamp; a band covering
// zero bins reports the floor value. Occupancy is the percentage of in-band
// raw dB bins strictly above noiseFloorDB plus the threshold; a band covering
// zero bins reports zero.
func (x *BandFeatureExtractor) Extract(spec *Spectrum, centerFreqHz, noiseFloorDB float64) *BandFeatures {
	bandpower := make([]float64, len(x.bands))
	occupancy := make([]float64, len(x.bands))

	for i, band := range x.bands {
		lo, hi := binRange(spec.FreqBinsHz, band, centerFreqHz)
		if lo > hi {
			bandpower[i] = x.floorDB
			occupancy[i] = 0
			continue
		}

		powerLinear := floats.Sum(spec.PSDLinear[lo:hi+1]) * spec.BinWidthHz
		bandpower[i] = PowerToDB(powerLinear, x.floorDB)

		threshold := noiseFloorDB + x.thresholdDB
		occupied := 0
		for _, v := range spec.PSDDB[lo : hi+1] {
			if v > threshold {
				occupied++
			}
		}
		occupancy[i] = float64(occupied) / float64(hi-lo+1) * 100.0
	}

	return &BandFeatures{BandpowerDB: bandpower, OccupancyPct: occupancy}
}

// Bands returns a copy of the configured band list.
func (x *BandFeatureExtractor) Bands() []rf.Band {
	bands := make([]rf.Band, len(x.bands))
	copy(bands, x.bands)
	return bands
}

// NumBands returns the number of configured bands.
func (x *BandFeatureExtractor) NumBands() int {
	return len(x.bands)
}

// ThresholdDB returns the occupancy threshold margin.
func (x *BandFeatureExtractor) ThresholdDB() float64 {
	return x.thresholdDB
}

// binRange returns the inclusive index range of bins whose baseband frequency
// falls inside the band, or lo > hi when no bin does. Bins must be
// monotonically increasing, which the estimator guarantees.
func binRange(bins []float64, band rf.Band, centerFreqHz float64) (lo, hi int) {
	startBaseband := band.StartHz - centerFreqHz
	endBaseband := band.EndHz - centerFreqHz

	lo = sort.SearchFloat64s(bins, startBaseband)
	hi = sort.Search(len(bins), func(i int) bool { return bins[i] > endBaseband }) - 1
	return lo, hi
}
