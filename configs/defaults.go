package configs

import (
	"github.com/spf13/viper"

	"github.com/Pouria-007/RF-Spectrum-Observatory/ingest"
)

// SetDefaults registers default configuration values for every section
func SetDefaults(v *viper.Viper) {
	// RF capture defaults: a 100 MS/s slice of the 3.5 GHz band
	v.SetDefault("rf.center_freq_hz", 3.5e9)
	v.SetDefault("rf.sample_rate_sps", 100e6)
	v.SetDefault("rf.bandwidth_hz", 80e6)
	v.SetDefault("rf.gain_db", 30.0)
	v.SetDefault("rf.fft_size", 1024)
	v.SetDefault("rf.window_type", "hann")

	// DSP pipeline defaults
	v.SetDefault("dsp.frames_per_batch", 5)
	v.SetDefault("dsp.smoothing_factor", 0.3)
	v.SetDefault("dsp.welch_segments", 4)
	v.SetDefault("dsp.noise_floor_percentile", 10.0)
	v.SetDefault("dsp.occupancy_threshold_db", 6.0)
	v.SetDefault("dsp.bands", []map[string]any{
		{"name": "n78_low", "start_hz": 3.455e9, "end_hz": 3.485e9},
		{"name": "n78_mid", "start_hz": 3.485e9, "end_hz": 3.515e9},
		{"name": "n78_high", "start_hz": 3.515e9, "end_hz": 3.545e9},
	})

	// Geospatial defaults
	v.SetDefault("geo.map_center_lat", 37.7946)
	v.SetDefault("geo.map_center_lon", -122.3999)
	v.SetDefault("geo.tile_size_meters", 100.0)
	v.SetDefault("geo.grid_extent_meters", 2000.0)
	v.SetDefault("geo.aggregate_window_frames", 100)

	// Synthetic IQ defaults
	v.SetDefault("synthetic.iq.num_carriers", 5)
	v.SetDefault("synthetic.iq.carrier_bw_hz", 10e6)
	v.SetDefault("synthetic.iq.carrier_power_db", -30.0)
	v.SetDefault("synthetic.iq.noise_floor_db", -80.0)
	v.SetDefault("synthetic.iq.seed", 42)
	v.SetDefault("synthetic.iq.interference.enabled", false)
	v.SetDefault("synthetic.iq.interference.burst_jammer.enabled", false)
	v.SetDefault("synthetic.iq.interference.burst_jammer.period_frames", 50)
	v.SetDefault("synthetic.iq.interference.burst_jammer.duty_cycle", 0.1)
	v.SetDefault("synthetic.iq.interference.swept_tone.enabled", false)
	v.SetDefault("synthetic.iq.interference.swept_tone.sweep_rate_hz_per_sec", 1e6)

	// Synthetic GPS defaults
	v.SetDefault("synthetic.gps.route_csv", "")
	v.SetDefault("synthetic.gps.update_rate_hz", 5.0)
	v.SetDefault("synthetic.gps.speed_mps", 5.0)
	v.SetDefault("synthetic.gps.loop", true)
	v.SetDefault("synthetic.gps.circle_radius_meters", 300.0)
	v.SetDefault("synthetic.gps.circle_waypoints", 64)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.log_file", "")
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		RF:        GetDefaultRFConfig(),
		DSP:       GetDefaultDSPConfig(),
		Geo:       GetDefaultGeoConfig(),
		Synthetic: GetDefaultSyntheticConfig(),
		Logging:   GetDefaultLoggingConfig(),
	}
}

// GetDefaultRFConfig returns default RF capture settings
func GetDefaultRFConfig() RFConfig {
	return RFConfig{
		CenterFreqHz:  3.5e9,
		SampleRateSps: 100e6,
		BandwidthHz:   80e6,
		GainDB:        30.0,
		FFTSize:       1024,
		WindowType:    "hann",
	}
}

// GetDefaultDSPConfig returns default spectral pipeline settings
func GetDefaultDSPConfig() DSPConfig {
	return DSPConfig{
		FramesPerBatch:       5,
		SmoothingFactor:      0.3,
		WelchSegments:        4,
		NoiseFloorPercentile: 10.0,
		OccupancyThresholdDB: 6.0,
		Bands: []BandConfig{
			{Name: "n78_low", StartHz: 3.455e9, EndHz: 3.485e9},
			{Name: "n78_mid", StartHz: 3.485e9, EndHz: 3.515e9},
			{Name: "n78_high", StartHz: 3.515e9, EndHz: 3.545e9},
		},
	}
}

// GetDefaultGeoConfig returns default tile grid settings
func GetDefaultGeoConfig() GeoConfig {
	return GeoConfig{
		MapCenterLat:          37.7946,
		MapCenterLon:          -122.3999,
		TileSizeMeters:        100.0,
		GridExtentMeters:      2000.0,
		AggregateWindowFrames: 100,
	}
}

// GetDefaultSyntheticConfig returns default synthetic source settings
func GetDefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		IQ: SyntheticIQConfig{
			NumCarriers:    5,
			CarrierBwHz:    10e6,
			CarrierPowerDB: -30.0,
			NoiseFloorDB:   -80.0,
			Seed:           42,
			Interference: ingest.InterferenceConfig{
				Enabled: false,
				BurstJammer: ingest.BurstJammerConfig{
					Enabled:      false,
					PeriodFrames: 50,
					DutyCycle:    0.1,
				},
				SweptTone: ingest.SweptToneConfig{
					Enabled:           false,
					SweepRateHzPerSec: 1e6,
				},
			},
		},
		GPS: SyntheticGPSConfig{
			RouteCSV:           "",
			UpdateRateHz:       5.0,
			SpeedMps:           5.0,
			Loop:               true,
			CircleRadiusMeters: 300.0,
			CircleWaypoints:    64,
		},
	}
}

// GetDefaultLoggingConfig returns default log output settings
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:   "info",
		Format:  "text",
		LogFile: "",
	}
}
