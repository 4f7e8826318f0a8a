package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{"hann", "hamming", "blackman"} {
		wt, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, Type(name), wt)
	}

	_, err := ParseType("kaiser")
	require.Error(t, err)
	assert.True(t, rf.IsConfigError(err))
}

func TestGenerateHannPeriodic(t *testing.T) {
	g := NewGenerator()
	w, err := g.Generate(TypeHann, 1024)
	require.NoError(t, err)

	require.Len(t, w.Coefficients, 1024)
	assert.InDelta(t, 0.0, w.Coefficients[0], 1e-12)
	assert.InDelta(t, 1.0, w.Coefficients[512], 1e-12)

	// Periodic form: the last coefficient does not mirror the first.
	assert.Greater(t, w.Coefficients[1023], 0.0)

	// Periodic Hann: sum(w) = N/2, sum(w^2) = 3N/8.
	assert.InDelta(t, 0.5, w.CoherentGain, 1e-9)
	assert.InDelta(t, 3.0*1024.0/8.0, w.PowerCorrection, 1e-6)
}

func TestGenerateHammingEndpoints(t *testing.T) {
	g := NewGenerator()
	w, err := g.Generate(TypeHamming, 512)
	require.NoError(t, err)

	assert.InDelta(t, 0.08, w.Coefficients[0], 1e-12)
	assert.InDelta(t, 1.0, w.Coefficients[256], 1e-12)
}

func TestGenerateBlackmanEndpoints(t *testing.T) {
	g := NewGenerator()
	w, err := g.Generate(TypeBlackman, 512)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, w.Coefficients[0], 1e-12)
	assert.InDelta(t, 1.0, w.Coefficients[256], 1e-12)
}

func TestGeneratorCache(t *testing.T) {
	g := NewGenerator()

	a, err := g.Generate(TypeHann, 256)
	require.NoError(t, err)
	b, err := g.Generate(TypeHann, 256)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := g.Generate(TypeHann, 512)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestGeneratorValidation(t *testing.T) {
	g := NewGenerator()

	_, err := g.Generate(TypeHann, 1)
	assert.True(t, rf.IsConfigError(err))

	_, err = g.Generate(Type("tukey"), 64)
	assert.True(t, rf.IsConfigError(err))
}

func TestApplyShapes(t *testing.T) {
	g := NewGenerator()
	w, err := g.Generate(TypeHann, 8)
	require.NoError(t, err)

	_, err = w.Apply(make([]float64, 7))
	assert.True(t, rf.IsShapeError(err))

	_, err = w.ApplyIQ(make([]complex128, 9))
	assert.True(t, rf.IsShapeError(err))

	out, err := w.Apply([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, w.Coefficients, out, 1e-12)
}

func TestApplyIQScalesBothComponents(t *testing.T) {
	g := NewGenerator()
	w, err := g.Generate(TypeHann, 4)
	require.NoError(t, err)

	iq := []complex128{complex(2, -2), complex(2, -2), complex(2, -2), complex(2, -2)}
	out, err := w.ApplyIQ(iq)
	require.NoError(t, err)

	for i := range out {
		assert.InDelta(t, 2*w.Coefficients[i], real(out[i]), 1e-12)
		assert.InDelta(t, -2*w.Coefficients[i], imag(out[i]), 1e-12)
	}

	// Input untouched.
	assert.Equal(t, complex(2.0, -2.0), iq[0])
}
