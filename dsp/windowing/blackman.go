package windowing

import "math"

// generateBlackman fills coefficients with a periodic Blackman window using
// the classic coefficients:
//
//	w[n] = 0.42 - 0.5*cos(2*pi*n/N) + 0.08*cos(4*pi*n/N)
//
// References:
//   - Harris, F.J. "On the Use of Windows for Harmonic Analysis with the
//     Discrete Fourier Transform", Proc. IEEE, 1978
func generateBlackman(coefficients []float64) {
	N := float64(len(coefficients))
	a0, a1, a2 := 0.42, 0.5, 0.08

	for i := range coefficients {
		arg := 2 * math.Pi * float64(i) / N
		coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
}
