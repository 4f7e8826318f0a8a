package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

func TestEMASmootherValidation(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
		size  int
		ok    bool
	}{
		{"valid", 0.3, 8, true},
		{"alpha one", 1.0, 8, true},
		{"alpha zero", 0.0, 8, false},
		{"alpha negative", -0.1, 8, false},
		{"alpha above one", 1.1, 8, false},
		{"zero size", 0.3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEMASmoother(tt.alpha, tt.size)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, rf.IsConfigError(err))
			}
		})
	}
}

func TestEMAFirstUpdateCopies(t *testing.T) {
	s, err := NewEMASmoother(0.5, 3)
	require.NoError(t, err)

	x := []float64{-100, -90, -80}
	out, err := s.Update(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{-100, -90, -80}, out)

	// Mutating the input afterwards must not leak into the state.
	x[0] = 0
	out2, err := s.Update([]float64{-100, -90, -80})
	require.NoError(t, err)
	assert.InDelta(t, -100.0, out2[0], 1e-12)

	// Nor may mutating a returned slice.
	out2[1] = 42
	out3, err := s.Update([]float64{-90, -90, -90})
	require.NoError(t, err)
	assert.InDelta(t, -90.0, out3[1], 1e-12)
}

func TestEMAAlphaOneIsIdentity(t *testing.T) {
	s, err := NewEMASmoother(1.0, 4)
	require.NoError(t, err)

	_, err = s.Update([]float64{-120, -120, -120, -120})
	require.NoError(t, err)

	out, err := s.Update([]float64{-60, -70, -80, -90})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-60, -70, -80, -90}, out, 1e-12)
}

func TestEMARecurrence(t *testing.T) {
	s, err := NewEMASmoother(0.25, 2)
	require.NoError(t, err)

	_, err = s.Update([]float64{-100, -100})
	require.NoError(t, err)

	out, err := s.Update([]float64{-60, -80})
	require.NoError(t, err)

	// 0.25*x + 0.75*state
	assert.InDelta(t, 0.25*-60+0.75*-100, out[0], 1e-12)
	assert.InDelta(t, 0.25*-80+0.75*-100, out[1], 1e-12)
}

func TestEMAConstantInputIsFixedPoint(t *testing.T) {
	s, err := NewEMASmoother(0.3, 3)
	require.NoError(t, err)

	c := []float64{-95.5, -95.5, -95.5}
	for i := 0; i < 10; i++ {
		out, err := s.Update(c)
		require.NoError(t, err)
		assert.InDeltaSlice(t, c, out, 1e-9)
	}
}

func TestEMAShapeMismatchPreservesState(t *testing.T) {
	s, err := NewEMASmoother(0.5, 3)
	require.NoError(t, err)

	_, err = s.Update([]float64{-100, -100, -100})
	require.NoError(t, err)

	_, err = s.Update([]float64{-60, -60})
	require.Error(t, err)
	assert.True(t, rf.IsShapeError(err))

	// The failed update must not have touched the state.
	out, err := s.Update([]float64{-100, -100, -100})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-100, -100, -100}, out, 1e-12)
}

func TestEMAReset(t *testing.T) {
	s, err := NewEMASmoother(0.5, 2)
	require.NoError(t, err)

	_, err = s.Update([]float64{-100, -100})
	require.NoError(t, err)
	assert.True(t, s.Initialized())

	s.Reset()
	assert.False(t, s.Initialized())

	// Next update seeds fresh rather than blending with old state.
	out, err := s.Update([]float64{-50, -50})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-50, -50}, out, 1e-12)
}
