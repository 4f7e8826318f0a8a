package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// EstimateAverage computes a PSD averaged over several whole frames: each
// frame is estimated independently and the linear PSDs are averaged before
// the dB conversion.
//
// This is frame-wise periodogram averaging, an approximation of Welch's
// method. True Welch averaging would use overlapping segments within a single
// long capture; here the variance reduction comes from averaging across
// consecutive frames instead.
func (e *Estimator) EstimateAverage(frames []*rf.Frame) (*Spectrum, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to average")
	}

	sampleRate := frames[0].SampleRateHz
	var acc *Spectrum
	for _, frame := range frames {
		if frame.SampleRateHz != sampleRate {
			return nil, fmt.Errorf("cannot average frames with mixed sample rates: %g vs %g",
				sampleRate, frame.SampleRateHz)
		}

		spec, err := e.Estimate(frame)
		if err != nil {
			return nil, err
		}

		if acc == nil {
			acc = spec
			continue
		}
		floats.Add(acc.PSDLinear, spec.PSDLinear)
	}

	floats.Scale(1.0/float64(len(frames)), acc.PSDLinear)
	acc.PSDDB = LinearToDB(acc.PSDLinear, e.floorDB)
	return acc, nil
}
