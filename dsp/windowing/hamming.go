package windowing

import "math"

// generateHamming fills coefficients with a periodic Hamming window:
//
//	w[n] = 0.54 - 0.46 * cos(2*pi*n/N)
func generateHamming(coefficients []float64) {
	N := float64(len(coefficients))
	for i := range coefficients {
		coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/N)
	}
}
