// Package dsp wires the spectral processing stages into a single
// frame-to-features pipeline: windowed FFT and PSD estimation, EMA
// smoothing, noise floor tracking, band feature extraction, and
// position alignment.
package dsp

import (
	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/spectral"
	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/windowing"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
	"github.com/Pouria-007/RF-Spectrum-Observatory/timebase"
)

// PipelineConfig holds every knob of the frame processing chain.
type PipelineConfig struct {
	// FFTSize is the expected frame length in samples.
	FFTSize int
	// WindowType selects the analysis window applied before the FFT.
	WindowType windowing.Type
	// SmoothingAlpha is the EMA weight for PSD smoothing, in (0, 1].
	SmoothingAlpha float64
	// NoiseFloorPercentile selects the percentile of the smoothed dB
	// spectrum used as the noise floor estimate.
	NoiseFloorPercentile float64
	// OccupancyThresholdDB is the margin above the noise floor a bin
	// must exceed to count as occupied.
	OccupancyThresholdDB float64
	// FloorDB clamps dB conversions of near-zero linear power.
	FloorDB float64
	// Bands lists the absolute-frequency intervals to featurize.
	Bands []rf.Band
	// AlignmentPolicy selects how frames are matched to position fixes.
	AlignmentPolicy timebase.AlignmentPolicy
	// AlignmentToleranceNs is the maximum |frame - fix| timestamp gap
	// accepted under the nearest policy.
	AlignmentToleranceNs int64
	// FixBufferSize bounds the retained fix history.
	FixBufferSize int
}

// DefaultPipelineConfig returns a pipeline configuration with sensible
// defaults for a 1024-bin monitor with no bands configured.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		FFTSize:              1024,
		WindowType:           windowing.TypeHann,
		SmoothingAlpha:       0.3,
		NoiseFloorPercentile: spectral.DefaultNoiseFloorPercentile,
		OccupancyThresholdDB: spectral.DefaultOccupancyThresholdDB,
		FloorDB:              spectral.DefaultFloorDB,
		AlignmentPolicy:      timebase.PolicyNearest,
		AlignmentToleranceNs: timebase.DefaultToleranceNs,
		FixBufferSize:        timebase.DefaultFixCapacity,
	}
}

// Pipeline converts IQ frames into feature records. It owns the EMA
// smoother state and the position fix buffer, so a single Pipeline
// must not be shared across goroutines without external locking.
type Pipeline struct {
	cfg       PipelineConfig
	estimator *spectral.Estimator
	smoother  *spectral.EMASmoother
	floor     *spectral.NoiseFloorEstimator
	features  *spectral.BandFeatureExtractor
	aligner   *timebase.PositionAligner
	logger    logging.Logger
}

// NewPipeline validates the configuration and builds the processing
// chain. Stage constructors report rf.ConfigError for out-of-range
// settings.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	window, err := windowing.NewGenerator().Generate(cfg.WindowType, cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	smoother, err := spectral.NewEMASmoother(cfg.SmoothingAlpha, cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	floor, err := spectral.NewNoiseFloorEstimator(cfg.NoiseFloorPercentile)
	if err != nil {
		return nil, err
	}

	features, err := spectral.NewBandFeatureExtractor(
		cfg.Bands, cfg.OccupancyThresholdDB, cfg.FloorDB)
	if err != nil {
		return nil, err
	}

	aligner, err := timebase.NewPositionAlignerWithConfig(
		cfg.FixBufferSize, cfg.AlignmentPolicy, cfg.AlignmentToleranceNs)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "dsp_pipeline",
		"fft_size":  cfg.FFTSize,
		"window":    string(cfg.WindowType),
	})
	logger.Debug("DSP pipeline initialized", logging.Fields{
		"bands":            len(cfg.Bands),
		"smoothing_alpha":  cfg.SmoothingAlpha,
		"floor_percentile": cfg.NoiseFloorPercentile,
	})

	return &Pipeline{
		cfg:       cfg,
		estimator: spectral.NewEstimatorWithFloor(window, cfg.FloorDB),
		smoother:  smoother,
		floor:     floor,
		features:  features,
		aligner:   aligner,
		logger:    logger,
	}, nil
}

// AddFix records a position fix for later frame alignment. Old fixes
// are evicted once the buffer is full.
func (p *Pipeline) AddFix(fix rf.PositionFix) {
	p.aligner.AddFix(fix)
}

// Process runs one frame through the full chain and returns its
// feature record. The smoothed spectrum feeds the noise floor estimate
// while band features are computed from the raw spectrum, so transient
// signals register immediately without dragging the floor up. A frame
// whose length does not match the configured FFT size fails with
// rf.ShapeError and leaves the smoother state untouched.
func (p *Pipeline) Process(frame *rf.Frame) (*rf.FeatureRecord, error) {
	spec, err := p.estimator.Estimate(frame)
	if err != nil {
		return nil, err
	}

	smoothed, err := p.smoother.Update(spec.PSDDB)
	if err != nil {
		return nil, err
	}

	noiseFloorDB, err := p.floor.Estimate(smoothed)
	if err != nil {
		return nil, err
	}

	bandFeatures := p.features.Extract(spec, frame.CenterFreqHz, noiseFloorDB)

	record := &rf.FeatureRecord{
		FrameID:       frame.ID,
		TimestampNs:   frame.TimestampNs,
		CenterFreqHz:  frame.CenterFreqHz,
		SampleRateHz:  frame.SampleRateHz,
		FreqBinsHz:    spec.FreqBinsHz,
		PSDDB:         spec.PSDDB,
		PSDSmoothedDB: smoothed,
		NoiseFloorDB:  noiseFloorDB,
		BandpowerDB:   bandFeatures.BandpowerDB,
		OccupancyPct:  bandFeatures.OccupancyPct,
	}

	if fix, ok := p.aligner.Match(frame.TimestampNs); ok {
		record.Position = &rf.LatLon{LatDeg: fix.LatDeg, LonDeg: fix.LonDeg}
	}

	return record, nil
}

// WelchAverage computes a frame-averaged PSD over the given frames
// using the pipeline's estimator. It reads no pipeline state and does
// not advance the smoother.
func (p *Pipeline) WelchAverage(frames []*rf.Frame) (*spectral.Spectrum, error) {
	return p.estimator.EstimateAverage(frames)
}

// Reset clears the smoother state and the fix buffer so the pipeline
// behaves as freshly constructed.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
	p.aligner.Reset()
	p.logger.Debug("DSP pipeline reset")
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() PipelineConfig {
	return p.cfg
}

// Bands returns a copy of the configured band list.
func (p *Pipeline) Bands() []rf.Band {
	return p.features.Bands()
}

// FixCount reports how many position fixes are currently buffered.
func (p *Pipeline) FixCount() int {
	return p.aligner.Len()
}
