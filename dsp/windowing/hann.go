package windowing

import "math"

// generateHann fills coefficients with a periodic Hann window:
//
//	w[n] = 0.5 * (1 - cos(2*pi*n/N))
//
// The periodic form divides by N rather than N-1 so that frame-to-frame
// analysis tiles without a discontinuity at the boundary.
func generateHann(coefficients []float64) {
	N := float64(len(coefficients))
	for i := range coefficients {
		coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/N))
	}
}
