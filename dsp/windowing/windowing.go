// Package windowing provides the window functions used ahead of spectral
// estimation. All windows are generated in their periodic (DFT-even) form,
// the convention for analyzing contiguous sample frames.
package windowing

import (
	"fmt"

	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// Type represents a supported window function.
type Type string

const (
	TypeHann     Type = "hann"
	TypeHamming  Type = "hamming"
	TypeBlackman Type = "blackman"
)

// ParseType validates a window type name from configuration.
func ParseType(name string) (Type, error) {
	switch Type(name) {
	case TypeHann, TypeHamming, TypeBlackman:
		return Type(name), nil
	default:
		return "", rf.NewConfigError("rf.window_type",
			fmt.Sprintf("unknown window type: %q", name))
	}
}

// Window represents a generated window function together with the correction
// factors spectral estimation needs.
type Window struct {
	Type            Type      `json:"type"`
	Size            int       `json:"size"`
	Coefficients    []float64 `json:"coefficients"`
	PowerCorrection float64   `json:"power_correction"` // sum of squared coefficients
	CoherentGain    float64   `json:"coherent_gain"`    // mean coefficient
}

// Apply multiplies a real signal by the window, returning a new slice.
func (w *Window) Apply(signal []float64) ([]float64, error) {
	if len(signal) != w.Size {
		return nil, rf.NewShapeError("window input", w.Size, len(signal))
	}

	windowed := make([]float64, w.Size)
	for i := range signal {
		windowed[i] = signal[i] * w.Coefficients[i]
	}
	return windowed, nil
}

// ApplyIQ multiplies complex baseband samples by the window, returning a new slice.
func (w *Window) ApplyIQ(iq []complex128) ([]complex128, error) {
	if len(iq) != w.Size {
		return nil, rf.NewShapeError("window input", w.Size, len(iq))
	}

	windowed := make([]complex128, w.Size)
	for i := range iq {
		windowed[i] = iq[i] * complex(w.Coefficients[i], 0)
	}
	return windowed, nil
}

// Generator builds windows and caches them by type and size. Window tables
// are immutable once generated, so cached instances are shared.
type Generator struct {
	logger logging.Logger
	cache  map[string]*Window
}

// NewGenerator creates a new window generator.
func NewGenerator() *Generator {
	return &Generator{
		logger: logging.WithFields(logging.Fields{
			"component": "window_generator",
		}),
		cache: make(map[string]*Window),
	}
}

// Generate creates (or returns a cached) window of the given type and size.
func (g *Generator) Generate(windowType Type, size int) (*Window, error) {
	logger := g.logger.WithFields(logging.Fields{
		"function":    "Generate",
		"window_type": windowType,
		"window_size": size,
	})

	if size < 2 {
		err := rf.NewConfigError("rf.fft_size",
			fmt.Sprintf("window size must be at least 2: %d", size))
		logger.Error(err, "Invalid window configuration")
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s_%d", windowType, size)
	if cached, exists := g.cache[cacheKey]; exists {
		logger.Debug("Returning cached window")
		return cached, nil
	}

	coefficients := make([]float64, size)
	switch windowType {
	case TypeHann:
		generateHann(coefficients)
	case TypeHamming:
		generateHamming(coefficients)
	case TypeBlackman:
		generateBlackman(coefficients)
	default:
		err := rf.NewConfigError("rf.window_type",
			fmt.Sprintf("unknown window type: %q", windowType))
		logger.Error(err, "Invalid window configuration")
		return nil, err
	}

	window := &Window{
		Type:         windowType,
		Size:         size,
		Coefficients: coefficients,
	}

	powerSum := 0.0
	coherentSum := 0.0
	for _, c := range coefficients {
		powerSum += c * c
		coherentSum += c
	}
	window.PowerCorrection = powerSum
	window.CoherentGain = coherentSum / float64(size)

	g.cache[cacheKey] = window

	logger.Debug("Window generated", logging.Fields{
		"power_correction": window.PowerCorrection,
		"coherent_gain":    window.CoherentGain,
	})

	return window, nil
}
