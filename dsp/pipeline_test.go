package dsp

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/windowing"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
	"github.com/Pouria-007/RF-Spectrum-Observatory/timebase"
)

const (
	testFFTSize      = 1024
	testCenterHz     = 150e6
	testSampleRateHz = 1e6
)

func testPipelineConfig(bands ...rf.Band) PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.FFTSize = testFFTSize
	cfg.Bands = bands
	return cfg
}

func silentFrame(id uint64, tsNs int64) *rf.Frame {
	return &rf.Frame{
		ID:           id,
		TimestampNs:  tsNs,
		CenterFreqHz: testCenterHz,
		SampleRateHz: testSampleRateHz,
		IQ:           make([]complex128, testFFTSize),
	}
}

// toneFrame synthesizes a unit-amplitude complex exponential landing
// exactly on FFT bin k.
func toneFrame(id uint64, tsNs int64, k int) *rf.Frame {
	iq := make([]complex128, testFFTSize)
	for n := range iq {
		phase := 2 * math.Pi * float64(k) * float64(n) / float64(testFFTSize)
		iq[n] = cmplx.Exp(complex(0, phase))
	}
	return &rf.Frame{
		ID:           id,
		TimestampNs:  tsNs,
		CenterFreqHz: testCenterHz,
		SampleRateHz: testSampleRateHz,
		IQ:           iq,
	}
}

func TestNewPipelineValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"zero fft size", func(c *PipelineConfig) { c.FFTSize = 0 }},
		{"unknown window", func(c *PipelineConfig) { c.WindowType = windowing.Type("kaiser") }},
		{"alpha too large", func(c *PipelineConfig) { c.SmoothingAlpha = 1.5 }},
		{"negative percentile", func(c *PipelineConfig) { c.NoiseFloorPercentile = -1 }},
		{"inverted band", func(c *PipelineConfig) {
			c.Bands = []rf.Band{{Name: "bad", StartHz: 2e6, EndHz: 1e6}}
		}},
		{"zero fix buffer", func(c *PipelineConfig) { c.FixBufferSize = 0 }},
		{"zero tolerance with nearest", func(c *PipelineConfig) { c.AlignmentToleranceNs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testPipelineConfig()
			tt.mutate(&cfg)

			p, err := NewPipeline(cfg)
			assert.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, rf.IsConfigError(err))
		})
	}
}

func TestProcessSilentFrame(t *testing.T) {
	cfg := testPipelineConfig(rf.Band{Name: "VHF", StartHz: 30e6, EndHz: 300e6})
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	rec, err := p.Process(silentFrame(7, 1_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), rec.FrameID)
	assert.Equal(t, int64(1_000_000_000), rec.TimestampNs)
	assert.Equal(t, testCenterHz, rec.CenterFreqHz)
	assert.Len(t, rec.FreqBinsHz, testFFTSize)
	assert.Len(t, rec.PSDDB, testFFTSize)
	assert.Len(t, rec.PSDSmoothedDB, testFFTSize)

	for i, v := range rec.PSDDB {
		require.InDelta(t, cfg.FloorDB, v, 1e-9, "psd bin %d", i)
	}
	for i, v := range rec.PSDSmoothedDB {
		require.InDelta(t, cfg.FloorDB, v, 1e-9, "smoothed bin %d", i)
	}

	assert.InDelta(t, cfg.FloorDB, rec.NoiseFloorDB, 1e-9)

	require.Len(t, rec.BandpowerDB, 1)
	require.Len(t, rec.OccupancyPct, 1)
	assert.InDelta(t, cfg.FloorDB, rec.BandpowerDB[0], 1e-9)
	assert.Zero(t, rec.OccupancyPct[0])

	assert.False(t, rec.HasPosition())
	assert.Nil(t, rec.AnomalyScore)
}

func TestProcessSingleToneOccupancy(t *testing.T) {
	// Tone on bin 256 sits at +250 kHz baseband, 150.25 MHz absolute.
	// The periodic Hann window spreads it over exactly three bins, so a
	// band hugging those bins reads full occupancy while a disjoint
	// band stays silent.
	inBand := rf.Band{Name: "tone", StartHz: 150e6 + 249e3, EndHz: 150e6 + 251e3}
	outBand := rf.Band{Name: "quiet", StartHz: 150e6 - 400e3, EndHz: 150e6 - 300e3}

	p, err := NewPipeline(testPipelineConfig(inBand, outBand))
	require.NoError(t, err)

	rec, err := p.Process(toneFrame(1, 0, 256))
	require.NoError(t, err)

	require.Len(t, rec.OccupancyPct, 2)
	assert.InDelta(t, 100.0, rec.OccupancyPct[0], 1e-9)
	assert.Zero(t, rec.OccupancyPct[1])

	// Three-bin linear sum is 1e-6 for a unit tone through the
	// normalized periodic Hann estimator; times the 976.5625 Hz bin
	// width that integrates to -30.1 dB.
	assert.InDelta(t, -30.1, rec.BandpowerDB[0], 0.05)
	assert.InDelta(t, DefaultPipelineConfig().FloorDB, rec.BandpowerDB[1], 1e-9)

	assert.Greater(t, rec.BandpowerDB[0], rec.NoiseFloorDB)
}

func TestProcessAttachesNearestFix(t *testing.T) {
	p, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	p.AddFix(rf.PositionFix{TimestampNs: timebase.SecToNs(10), LatDeg: 37.1, LonDeg: -122.1})
	p.AddFix(rf.PositionFix{TimestampNs: timebase.SecToNs(11), LatDeg: 37.2, LonDeg: -122.2})
	assert.Equal(t, 2, p.FixCount())

	// Frame at t=10.1s is nearest the first fix.
	rec, err := p.Process(silentFrame(1, timebase.SecToNs(10)+100_000_000))
	require.NoError(t, err)
	require.True(t, rec.HasPosition())
	assert.InDelta(t, 37.1, rec.Position.LatDeg, 1e-12)
	assert.InDelta(t, -122.1, rec.Position.LonDeg, 1e-12)

	// Frame at t=20s is beyond the 1 s tolerance of every fix.
	rec, err = p.Process(silentFrame(2, timebase.SecToNs(20)))
	require.NoError(t, err)
	assert.False(t, rec.HasPosition())
}

func TestProcessLatestPolicyIgnoresTolerance(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.AlignmentPolicy = timebase.PolicyLatest

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	p.AddFix(rf.PositionFix{TimestampNs: timebase.SecToNs(10), LatDeg: 37.1, LonDeg: -122.1})
	p.AddFix(rf.PositionFix{TimestampNs: timebase.SecToNs(11), LatDeg: 37.2, LonDeg: -122.2})

	rec, err := p.Process(silentFrame(1, timebase.SecToNs(500)))
	require.NoError(t, err)
	require.True(t, rec.HasPosition())
	assert.InDelta(t, 37.2, rec.Position.LatDeg, 1e-12)
}

func TestProcessBadFramePreservesState(t *testing.T) {
	cfg := testPipelineConfig()
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	first, err := p.Process(toneFrame(1, 0, 256))
	require.NoError(t, err)

	short := silentFrame(2, 0)
	short.IQ = short.IQ[:100]
	_, err = p.Process(short)
	require.Error(t, err)
	assert.True(t, rf.IsShapeError(err))

	// The failed frame must not have advanced the EMA: the next update
	// still blends against the first frame's spectrum.
	second, err := p.Process(silentFrame(3, 0))
	require.NoError(t, err)

	toneBin := testFFTSize/2 + 256
	want := cfg.SmoothingAlpha*cfg.FloorDB +
		(1-cfg.SmoothingAlpha)*first.PSDSmoothedDB[toneBin]
	assert.InDelta(t, want, second.PSDSmoothedDB[toneBin], 1e-9)
}

func TestPipelineReset(t *testing.T) {
	p, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	p.AddFix(rf.PositionFix{TimestampNs: 0, LatDeg: 37, LonDeg: -122})
	_, err = p.Process(toneFrame(1, 0, 256))
	require.NoError(t, err)

	p.Reset()
	assert.Zero(t, p.FixCount())

	// After reset the smoother reseeds from the next frame instead of
	// blending with the tone spectrum.
	rec, err := p.Process(silentFrame(2, 0))
	require.NoError(t, err)
	for i, v := range rec.PSDSmoothedDB {
		require.InDelta(t, DefaultPipelineConfig().FloorDB, v, 1e-9, "bin %d", i)
	}
	assert.False(t, rec.HasPosition())
}

func TestPipelineAccessors(t *testing.T) {
	band := rf.Band{Name: "ism", StartHz: 150.1e6, EndHz: 150.2e6}
	p, err := NewPipeline(testPipelineConfig(band))
	require.NoError(t, err)

	assert.Equal(t, testFFTSize, p.Config().FFTSize)

	bands := p.Bands()
	require.Len(t, bands, 1)
	assert.Equal(t, "ism", bands[0].Name)

	bands[0].Name = "mutated"
	assert.Equal(t, "ism", p.Bands()[0].Name)
}

func BenchmarkPipelineProcess(b *testing.B) {
	p, err := NewPipeline(testPipelineConfig(
		rf.Band{Name: "tone", StartHz: 150.2e6, EndHz: 150.3e6}))
	if err != nil {
		b.Fatal(err)
	}
	frame := toneFrame(1, 0, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Process(frame); err != nil {
			b.Fatal(err)
		}
	}
}
