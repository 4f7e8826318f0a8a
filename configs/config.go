// Package configs defines the observatory configuration tree, loaded
// from YAML and environment variables through viper. The sections
// mirror the processing stages: rf capture parameters, dsp pipeline
// knobs, geospatial grid layout, synthetic source settings, and
// logging.
package configs

import (
	"github.com/spf13/viper"

	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/windowing"
	"github.com/Pouria-007/RF-Spectrum-Observatory/ingest"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// Config represents the complete observatory configuration
type Config struct {
	RF        RFConfig        `mapstructure:"rf" json:"rf" yaml:"rf"`
	DSP       DSPConfig       `mapstructure:"dsp" json:"dsp" yaml:"dsp"`
	Geo       GeoConfig       `mapstructure:"geo" json:"geo" yaml:"geo"`
	Synthetic SyntheticConfig `mapstructure:"synthetic" json:"synthetic" yaml:"synthetic"`
	Logging   LoggingConfig   `mapstructure:"logging" json:"logging" yaml:"logging"`
}

// RFConfig holds the capture parameters shared by every frame source
type RFConfig struct {
	CenterFreqHz  float64 `mapstructure:"center_freq_hz" json:"center_freq_hz" yaml:"center_freq_hz"`
	SampleRateSps float64 `mapstructure:"sample_rate_sps" json:"sample_rate_sps" yaml:"sample_rate_sps"`
	BandwidthHz   float64 `mapstructure:"bandwidth_hz" json:"bandwidth_hz" yaml:"bandwidth_hz"`
	GainDB        float64 `mapstructure:"gain_db" json:"gain_db" yaml:"gain_db"`
	FFTSize       int     `mapstructure:"fft_size" json:"fft_size" yaml:"fft_size"`
	WindowType    string  `mapstructure:"window_type" json:"window_type" yaml:"window_type"`
}

// BandConfig names an absolute frequency interval to featurize
type BandConfig struct {
	Name    string  `mapstructure:"name" json:"name" yaml:"name"`
	StartHz float64 `mapstructure:"start_hz" json:"start_hz" yaml:"start_hz"`
	EndHz   float64 `mapstructure:"end_hz" json:"end_hz" yaml:"end_hz"`
}

// DSPConfig holds the spectral pipeline parameters
type DSPConfig struct {
	FramesPerBatch       int          `mapstructure:"frames_per_batch" json:"frames_per_batch" yaml:"frames_per_batch"`
	SmoothingFactor      float64      `mapstructure:"smoothing_factor" json:"smoothing_factor" yaml:"smoothing_factor"`
	WelchSegments        int          `mapstructure:"welch_segments" json:"welch_segments" yaml:"welch_segments"`
	NoiseFloorPercentile float64      `mapstructure:"noise_floor_percentile" json:"noise_floor_percentile" yaml:"noise_floor_percentile"`
	OccupancyThresholdDB float64      `mapstructure:"occupancy_threshold_db" json:"occupancy_threshold_db" yaml:"occupancy_threshold_db"`
	Bands                []BandConfig `mapstructure:"bands" json:"bands" yaml:"bands"`
}

// GeoConfig holds the tile grid layout and aggregation window
type GeoConfig struct {
	MapCenterLat          float64 `mapstructure:"map_center_lat" json:"map_center_lat" yaml:"map_center_lat"`
	MapCenterLon          float64 `mapstructure:"map_center_lon" json:"map_center_lon" yaml:"map_center_lon"`
	TileSizeMeters        float64 `mapstructure:"tile_size_meters" json:"tile_size_meters" yaml:"tile_size_meters"`
	GridExtentMeters      float64 `mapstructure:"grid_extent_meters" json:"grid_extent_meters" yaml:"grid_extent_meters"`
	AggregateWindowFrames int     `mapstructure:"aggregate_window_frames" json:"aggregate_window_frames" yaml:"aggregate_window_frames"`
}

// SyntheticConfig groups the synthetic source settings
type SyntheticConfig struct {
	IQ  SyntheticIQConfig  `mapstructure:"iq" json:"iq" yaml:"iq"`
	GPS SyntheticGPSConfig `mapstructure:"gps" json:"gps" yaml:"gps"`
}

// SyntheticIQConfig holds the synthetic frame generator settings.
// Capture geometry (center frequency, sample rate, frame size) comes
// from the rf section.
type SyntheticIQConfig struct {
	NumCarriers    int                       `mapstructure:"num_carriers" json:"num_carriers" yaml:"num_carriers"`
	CarrierBwHz    float64                   `mapstructure:"carrier_bw_hz" json:"carrier_bw_hz" yaml:"carrier_bw_hz"`
	CarrierPowerDB float64                   `mapstructure:"carrier_power_db" json:"carrier_power_db" yaml:"carrier_power_db"`
	NoiseFloorDB   float64                   `mapstructure:"noise_floor_db" json:"noise_floor_db" yaml:"noise_floor_db"`
	Seed           int64                     `mapstructure:"seed" json:"seed" yaml:"seed"`
	Interference   ingest.InterferenceConfig `mapstructure:"interference" json:"interference" yaml:"interference"`
}

// SyntheticGPSConfig holds the synthetic position source settings.
// When RouteCSV is empty the source follows a circular route of
// CircleRadiusMeters around the map center instead.
type SyntheticGPSConfig struct {
	RouteCSV           string  `mapstructure:"route_csv" json:"route_csv" yaml:"route_csv"`
	UpdateRateHz       float64 `mapstructure:"update_rate_hz" json:"update_rate_hz" yaml:"update_rate_hz"`
	SpeedMps           float64 `mapstructure:"speed_mps" json:"speed_mps" yaml:"speed_mps"`
	Loop               bool    `mapstructure:"loop" json:"loop" yaml:"loop"`
	CircleRadiusMeters float64 `mapstructure:"circle_radius_meters" json:"circle_radius_meters" yaml:"circle_radius_meters"`
	CircleWaypoints    int     `mapstructure:"circle_waypoints" json:"circle_waypoints" yaml:"circle_waypoints"`
}

// LoggingConfig holds the log output settings
type LoggingConfig struct {
	Level   string `mapstructure:"level" json:"level" yaml:"level"`
	Format  string `mapstructure:"format" json:"format" yaml:"format"`
	LogFile string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
}

// RFBands converts the configured band list to rf.Band values in
// configuration order.
func (c *DSPConfig) RFBands() []rf.Band {
	bands := make([]rf.Band, len(c.Bands))
	for i, b := range c.Bands {
		bands[i] = rf.Band{Name: b.Name, StartHz: b.StartHz, EndHz: b.EndHz}
	}
	return bands
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, rf.NewConfigErrorWithCause("config",
			"unable to decode configuration", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.RF.CenterFreqHz <= 0 {
		return rf.NewConfigError("rf.center_freq_hz",
			"center frequency must be positive")
	}

	if config.RF.SampleRateSps <= 0 {
		return rf.NewConfigError("rf.sample_rate_sps",
			"sample rate must be positive")
	}

	if config.RF.FFTSize < 2 || config.RF.FFTSize&(config.RF.FFTSize-1) != 0 {
		return rf.NewConfigError("rf.fft_size",
			"fft size must be a power of two of at least 2")
	}

	if _, err := windowing.ParseType(config.RF.WindowType); err != nil {
		return rf.NewConfigErrorWithCause("rf.window_type",
			"invalid window type", err)
	}

	if config.DSP.FramesPerBatch < 1 {
		return rf.NewConfigError("dsp.frames_per_batch",
			"frames per batch must be at least 1")
	}

	if config.DSP.SmoothingFactor <= 0 || config.DSP.SmoothingFactor > 1 {
		return rf.NewConfigError("dsp.smoothing_factor",
			"smoothing factor must be in (0, 1]")
	}

	if config.DSP.WelchSegments < 1 {
		return rf.NewConfigError("dsp.welch_segments",
			"welch segments must be at least 1")
	}

	if config.DSP.NoiseFloorPercentile < 0 || config.DSP.NoiseFloorPercentile > 100 {
		return rf.NewConfigError("dsp.noise_floor_percentile",
			"percentile must be in [0, 100]")
	}

	for _, band := range config.DSP.RFBands() {
		if band.Name == "" {
			return rf.NewConfigError("dsp.bands",
				"every band needs a name")
		}
		if err := band.Validate(); err != nil {
			return err
		}
	}

	if config.Geo.TileSizeMeters <= 0 {
		return rf.NewConfigError("geo.tile_size_meters",
			"tile size must be positive")
	}

	if config.Geo.GridExtentMeters <= 0 {
		return rf.NewConfigError("geo.grid_extent_meters",
			"grid extent must be positive")
	}

	if config.Geo.AggregateWindowFrames < 1 {
		return rf.NewConfigError("geo.aggregate_window_frames",
			"aggregation window must be at least 1 frame")
	}

	if config.Synthetic.IQ.NumCarriers < 0 {
		return rf.NewConfigError("synthetic.iq.num_carriers",
			"carrier count cannot be negative")
	}

	if config.Synthetic.GPS.UpdateRateHz <= 0 {
		return rf.NewConfigError("synthetic.gps.update_rate_hz",
			"update rate must be positive")
	}

	if config.Synthetic.GPS.SpeedMps <= 0 {
		return rf.NewConfigError("synthetic.gps.speed_mps",
			"speed must be positive")
	}

	if config.Synthetic.GPS.RouteCSV == "" {
		if config.Synthetic.GPS.CircleRadiusMeters <= 0 {
			return rf.NewConfigError("synthetic.gps.circle_radius_meters",
				"circle radius must be positive when no route file is set")
		}
		if config.Synthetic.GPS.CircleWaypoints < 2 {
			return rf.NewConfigError("synthetic.gps.circle_waypoints",
				"circle route needs at least 2 waypoints")
		}
	}

	if _, err := logging.ParseLevel(config.Logging.Level); err != nil {
		return rf.NewConfigErrorWithCause("logging.level",
			"invalid log level", err)
	}

	return nil
}
