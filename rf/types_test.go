package rf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandValidate(t *testing.T) {
	tests := []struct {
		name    string
		band    Band
		wantErr bool
	}{
		{"valid", Band{Name: "vhf_air", StartHz: 118e6, EndHz: 137e6}, false},
		{"inverted", Band{Name: "bad", StartHz: 137e6, EndHz: 118e6}, true},
		{"empty", Band{Name: "empty", StartHz: 100e6, EndHz: 100e6}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.band.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBandWidth(t *testing.T) {
	b := Band{Name: "fm", StartHz: 88e6, EndHz: 108e6}
	assert.InDelta(t, 20e6, b.WidthHz(), 1e-9)
}

func TestFrameDuration(t *testing.T) {
	f := &Frame{
		IQ:           make([]complex128, 1024),
		SampleRateHz: 1e6,
	}
	// 1024 samples at 1 Msps is 1.024 ms
	assert.Equal(t, int64(1024000), f.DurationNs())

	zero := &Frame{IQ: make([]complex128, 16)}
	assert.Equal(t, int64(0), zero.DurationNs())
}

func TestFeatureRecordPosition(t *testing.T) {
	rec := &FeatureRecord{FrameID: 7}
	assert.False(t, rec.HasPosition())

	rec.Position = &LatLon{LatDeg: 37.0, LonDeg: -122.0}
	assert.True(t, rec.HasPosition())
}
