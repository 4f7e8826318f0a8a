package ingest

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
	"github.com/Pouria-007/RF-Spectrum-Observatory/timebase"
)

// Synthetic signal defaults, modeled on a crowded cellular band.
const (
	DefaultNumCarriers        = 5
	DefaultCarrierBandwidthHz = 10e6
	DefaultCarrierPowerDB     = -30.0
	DefaultNoiseFloorDB       = -80.0
	DefaultSeed               = 42
)

const (
	burstJammerPowerDB = -20.0
	sweptTonePowerDB   = -25.0

	// carrierSpanFraction keeps the simulated carriers inside 80% of
	// the sampled bandwidth so their skirts stay clear of the band
	// edges.
	carrierSpanFraction = 0.8

	// powerVariationRangeDB is the peak-to-peak per-frame carrier
	// power swing, giving each carrier an independent fading-like
	// level.
	powerVariationRangeDB = 30.0
)

// BurstJammerConfig describes a periodic wideband jammer that switches
// on for DutyCycle of every PeriodFrames frames.
type BurstJammerConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	PeriodFrames int     `json:"period_frames" yaml:"period_frames" mapstructure:"period_frames"`
	DutyCycle    float64 `json:"duty_cycle" yaml:"duty_cycle" mapstructure:"duty_cycle"`
}

// SweptToneConfig describes a tone sweeping across the band at a fixed
// rate, wrapping at the band edge.
type SweptToneConfig struct {
	Enabled           bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	SweepRateHzPerSec float64 `json:"sweep_rate_hz_per_sec" yaml:"sweep_rate_hz_per_sec" mapstructure:"sweep_rate_hz_per_sec"`
}

// InterferenceConfig gates the optional interference sources.
type InterferenceConfig struct {
	Enabled     bool              `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	BurstJammer BurstJammerConfig `json:"burst_jammer" yaml:"burst_jammer" mapstructure:"burst_jammer"`
	SweptTone   SweptToneConfig   `json:"swept_tone" yaml:"swept_tone" mapstructure:"swept_tone"`
}

// SyntheticIQConfig holds the knobs of the synthetic frame generator.
type SyntheticIQConfig struct {
	CenterFreqHz       float64
	SampleRateHz       float64
	FrameSize          int
	NumCarriers        int
	CarrierBandwidthHz float64
	CarrierPowerDB     float64
	NoiseFloorDB       float64
	Interference       InterferenceConfig
	Seed               int64
}

// DefaultSyntheticIQConfig returns the generator defaults for the
// given capture parameters: five OFDM-like carriers over a Gaussian
// noise floor, interference disabled.
func DefaultSyntheticIQConfig(centerFreqHz, sampleRateHz float64, frameSize int) SyntheticIQConfig {
	return SyntheticIQConfig{
		CenterFreqHz:       centerFreqHz,
		SampleRateHz:       sampleRateHz,
		FrameSize:          frameSize,
		NumCarriers:        DefaultNumCarriers,
		CarrierBandwidthHz: DefaultCarrierBandwidthHz,
		CarrierPowerDB:     DefaultCarrierPowerDB,
		NoiseFloorDB:       DefaultNoiseFloorDB,
		Seed:               DefaultSeed,
	}
}

// SyntheticFrameSource generates deterministic 5G-like wideband
// frames: evenly spaced OFDM-like carriers with per-frame power
// variation over a Gaussian noise floor, plus optional burst-jammer
// and swept-tone interference. The same seed always reproduces the
// same sample stream.
type SyntheticFrameSource struct {
	cfg SyntheticIQConfig

	carrierAmp     float64
	noiseAmp       float64
	carrierFreqsHz []float64

	frameDurationNs int64

	rng         *rand.Rand
	running     bool
	startTimeNs int64
	frameID     uint64
	sweepFreqHz float64

	logger logging.Logger
}

// NewSyntheticFrameSource validates the configuration and builds the
// generator. Carrier frequencies are fixed at construction, evenly
// spaced across 80% of the sampled bandwidth.
func NewSyntheticFrameSource(cfg SyntheticIQConfig) (*SyntheticFrameSource, error) {
	if cfg.SampleRateHz <= 0 {
		return nil, rf.NewConfigError("rf.sample_rate_sps",
			"sample rate must be positive")
	}
	if cfg.FrameSize < 1 {
		return nil, rf.NewConfigError("rf.fft_size",
			"frame size must be at least one sample")
	}
	if cfg.NumCarriers < 0 {
		return nil, rf.NewConfigError("synthetic.iq.num_carriers",
			"carrier count must not be negative")
	}

	span := cfg.SampleRateHz * carrierSpanFraction
	spacing := span / float64(cfg.NumCarriers+1)
	freqs := make([]float64, cfg.NumCarriers)
	for i := range freqs {
		freqs[i] = -span/2 + float64(i+1)*spacing
	}

	return &SyntheticFrameSource{
		cfg:             cfg,
		carrierAmp:      math.Pow(10, cfg.CarrierPowerDB/20),
		noiseAmp:        math.Pow(10, cfg.NoiseFloorDB/20),
		carrierFreqsHz:  freqs,
		frameDurationNs: timebase.SecToNs(float64(cfg.FrameSize) / cfg.SampleRateHz),
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		logger: logging.WithFields(logging.Fields{
			"component": "synthetic_iq",
			"carriers":  cfg.NumCarriers,
		}),
	}, nil
}

// Start arms the source and pins the stream start time. Frame
// timestamps advance by exactly one frame duration per frame from
// here, regardless of how fast the caller drains the source.
func (s *SyntheticFrameSource) Start() error {
	s.running = true
	s.startTimeNs = timebase.NowNs()
	s.frameID = 0
	s.logger.Debug("synthetic IQ source started", logging.Fields{
		"center_freq_hz": s.cfg.CenterFreqHz,
		"sample_rate":    s.cfg.SampleRateHz,
		"frame_size":     s.cfg.FrameSize,
	})
	return nil
}

// Stop disarms the source. A stopped source fails Next with
// ErrNotStarted until started again.
func (s *SyntheticFrameSource) Stop() error {
	s.running = false
	return nil
}

// Next synthesizes the next frame. The generator never blocks, so the
// context is only consulted for cancellation.
func (s *SyntheticFrameSource) Next(ctx context.Context) (*rf.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.running {
		return nil, ErrNotStarted
	}

	frame := &rf.Frame{
		ID:           s.frameID,
		TimestampNs:  s.startTimeNs + int64(s.frameID)*s.frameDurationNs,
		CenterFreqHz: s.cfg.CenterFreqHz,
		SampleRateHz: s.cfg.SampleRateHz,
		IQ:           s.synthesize(s.frameID),
	}
	s.frameID++
	return frame, nil
}

// CarrierFreqsHz returns the absolute frequencies of the simulated
// carriers, for validation against detected spectral peaks.
func (s *SyntheticFrameSource) CarrierFreqsHz() []float64 {
	out := make([]float64, len(s.carrierFreqsHz))
	for i, f := range s.carrierFreqsHz {
		out[i] = s.cfg.CenterFreqHz + f
	}
	return out
}

// FrameDurationNs returns the time covered by one frame.
func (s *SyntheticFrameSource) FrameDurationNs() int64 {
	return s.frameDurationNs
}

func (s *SyntheticFrameSource) synthesize(frameID uint64) []complex128 {
	n := s.cfg.FrameSize
	iq := make([]complex128, n)

	noiseScale := s.noiseAmp / math.Sqrt2
	for i := range iq {
		iq[i] = complex(s.rng.NormFloat64()*noiseScale, s.rng.NormFloat64()*noiseScale)
	}

	binWidthHz := s.cfg.SampleRateHz / float64(n)
	blockSamples := int(s.cfg.CarrierBandwidthHz / binWidthHz)
	if blockSamples < 1 {
		blockSamples = 1
	}

	for _, freqHz := range s.carrierFreqsHz {
		phase := s.rng.Float64() * 2 * math.Pi
		variationDB := (s.rng.Float64() - 0.5) * powerVariationRangeDB
		amp := s.carrierAmp * math.Pow(10, variationDB/20)

		// Blockwise random phase rotation approximates OFDM symbol
		// structure without simulating real subcarriers.
		for start := 0; start < n; start += blockSamples {
			blockPhase := s.rng.Float64() * 2 * math.Pi
			end := start + blockSamples
			if end > n {
				end = n
			}
			for t := start; t < end; t++ {
				arg := 2*math.Pi*freqHz*float64(t)/s.cfg.SampleRateHz + phase + blockPhase
				iq[t] += complex(amp, 0) * cmplx.Exp(complex(0, arg))
			}
		}
	}

	s.applyInterference(iq, frameID)
	return iq
}

func (s *SyntheticFrameSource) applyInterference(iq []complex128, frameID uint64) {
	if !s.cfg.Interference.Enabled {
		return
	}

	burst := s.cfg.Interference.BurstJammer
	if burst.Enabled && burst.PeriodFrames > 0 {
		onFrames := uint64(float64(burst.PeriodFrames) * burst.DutyCycle)
		if frameID%uint64(burst.PeriodFrames) < onFrames {
			scale := math.Pow(10, burstJammerPowerDB/20) / math.Sqrt2
			for i := range iq {
				iq[i] += complex(s.rng.NormFloat64()*scale, s.rng.NormFloat64()*scale)
			}
		}
	}

	sweep := s.cfg.Interference.SweptTone
	if sweep.Enabled {
		s.sweepFreqHz += sweep.SweepRateHzPerSec * float64(s.cfg.FrameSize) / s.cfg.SampleRateHz
		if math.Abs(s.sweepFreqHz) > s.cfg.SampleRateHz/2 {
			s.sweepFreqHz = -s.cfg.SampleRateHz / 2
		}

		amp := math.Pow(10, sweptTonePowerDB/20)
		for t := range iq {
			arg := 2 * math.Pi * s.sweepFreqHz * float64(t) / s.cfg.SampleRateHz
			iq[t] += complex(amp, 0) * cmplx.Exp(complex(0, arg))
		}
	}
}
