package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// EMASmoother applies an exponential moving average across successive PSD
// vectors:
//
//	state = alpha*x + (1-alpha)*state
//
// The first update seeds the state with a copy of the input. Alpha of 1
// disables smoothing (the output always equals the input).
type EMASmoother struct {
	alpha float64
	size  int
	state []float64
}

// NewEMASmoother creates a smoother for vectors of the given size. Alpha must
// be in (0, 1].
func NewEMASmoother(alpha float64, size int) (*EMASmoother, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, rf.NewConfigError("dsp.smoothing_alpha",
			fmt.Sprintf("alpha must be in (0, 1]: %g", alpha))
	}
	if size < 1 {
		return nil, rf.NewConfigError("rf.fft_size",
			fmt.Sprintf("smoother size must be positive: %d", size))
	}
	return &EMASmoother{alpha: alpha, size: size}, nil
}

// Update folds a new vector into the running average and returns the smoothed
// vector. The returned slice is a fresh copy; neither it nor the input ever
// aliases the internal state. A size mismatch returns a ShapeError and leaves
// the state untouched.
func (s *EMASmoother) Update(x []float64) ([]float64, error) {
	if len(x) != s.size {
		return nil, rf.NewShapeError("smoother input", s.size, len(x))
	}

	if s.state == nil {
		s.state = make([]float64, s.size)
		copy(s.state, x)
	} else {
		floats.Scale(1.0-s.alpha, s.state)
		floats.AddScaled(s.state, s.alpha, x)
	}

	out := make([]float64, s.size)
	copy(out, s.state)
	return out, nil
}

// Initialized reports whether the smoother has seen at least one update.
func (s *EMASmoother) Initialized() bool {
	return s.state != nil
}

// Alpha returns the smoothing factor.
func (s *EMASmoother) Alpha() float64 {
	return s.alpha
}

// Reset discards the running state; the next update re-seeds it.
func (s *EMASmoother) Reset() {
	s.state = nil
}
