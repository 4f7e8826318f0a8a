// Package spectral implements the PSD estimation chain: windowed FFT,
// normalization to power spectral density, EMA smoothing, noise-floor
// estimation, and per-band feature extraction.
package spectral

import (
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/windowing"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// Spectrum represents one PSD estimate of a frame. Frequencies are baseband
// Hz relative to the capture center frequency, monotonically increasing, with
// DC at the center bin. PSDLinear is W/Hz under the usual unit conventions;
// PSDDB is the same vector on a floor-clamped dB scale.
type Spectrum struct {
	FreqBinsHz []float64 `json:"freq_bins_hz"`
	PSDLinear  []float64 `json:"psd_linear"`
	PSDDB      []float64 `json:"psd_db"`
	BinWidthHz float64   `json:"bin_width_hz"`
}

// Estimator computes power spectral density estimates from IQ frames using a
// fixed window. The estimate is normalized as
//
//	psd = |FFT(iq * w)|^2 / (N * fs * sum(w^2))
//
// which keeps estimates comparable across FFT sizes and window choices.
type Estimator struct {
	window  *windowing.Window
	floorDB float64
	logger  logging.Logger
}

// NewEstimator creates an estimator with the default dB floor.
func NewEstimator(window *windowing.Window) *Estimator {
	return NewEstimatorWithFloor(window, DefaultFloorDB)
}

// NewEstimatorWithFloor creates an estimator with an explicit dB floor used
// when converting linear power to dB.
func NewEstimatorWithFloor(window *windowing.Window, floorDB float64) *Estimator {
	return &Estimator{
		window:  window,
		floorDB: floorDB,
		logger: logging.WithFields(logging.Fields{
			"component": "spectral_estimator",
		}),
	}
}

// FloorDB returns the configured dB floor.
func (e *Estimator) FloorDB() float64 {
	return e.floorDB
}

// Size returns the FFT size the estimator was built for.
func (e *Estimator) Size() int {
	return e.window.Size
}

// Estimate computes the PSD of one frame. The frame must contain exactly the
// window size worth of samples; a mismatch returns a ShapeError and leaves no
// state behind.
func (e *Estimator) Estimate(frame *rf.Frame) (*Spectrum, error) {
	if len(frame.IQ) != e.window.Size {
		return nil, rf.NewShapeError("frame samples", e.window.Size, len(frame.IQ))
	}

	windowed, err := e.window.ApplyIQ(frame.IQ)
	if err != nil {
		return nil, err
	}

	spectrum := fft.FFT(windowed)
	n := len(spectrum)

	psdLinear := make([]float64, n)
	for i, c := range spectrum {
		re, im := real(c), imag(c)
		psdLinear[i] = re*re + im*im
	}
	norm := float64(n) * frame.SampleRateHz * e.window.PowerCorrection
	floats.Scale(1.0/norm, psdLinear)

	psdLinear = fftShift(psdLinear)
	bins := shiftedFreqBins(n, frame.SampleRateHz)

	binWidth := 1.0
	if n > 1 {
		binWidth = bins[1] - bins[0]
	}

	return &Spectrum{
		FreqBinsHz: bins,
		PSDLinear:  psdLinear,
		PSDDB:      LinearToDB(psdLinear, e.floorDB),
		BinWidthHz: binWidth,
	}, nil
}

// fftShift reorders an FFT-ordered vector so that DC lands on the center bin,
// rolling the vector forward by n/2 (integer division, matching the usual
// numerical-library convention for odd lengths).
func fftShift(x []float64) []float64 {
	n := len(x)
	shifted := make([]float64, n)
	half := n / 2
	for i, v := range x {
		shifted[(i+half)%n] = v
	}
	return shifted
}

// shiftedFreqBins returns the baseband frequency of each bin after fftShift:
// bins[i] = (i - n/2) * fs / n, monotonically increasing with DC at bin n/2.
func shiftedFreqBins(n int, sampleRateHz float64) []float64 {
	bins := make([]float64, n)
	half := n / 2
	step := sampleRateHz / float64(n)
	for i := range bins {
		bins[i] = float64(i-half) * step
	}
	return bins
}
