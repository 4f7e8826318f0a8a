package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Pouria-007/RF-Spectrum-Observatory/configs"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Load, validate, and display the resolved configuration.

All values are shown after merging defaults, the config file, environment
variables, and flags, so the output reflects exactly what the other
commands will run with.

Examples:
  # Show the effective configuration
  observatory config

  # Verify a specific config file parses and validates
  observatory --config /path/to/observatory.yaml config

  # Dump the resolved configuration as YAML
  observatory config -o yaml`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	config, err := loadValidatedConfig()
	if err != nil {
		return err
	}

	switch viper.GetString("output_format") {
	case "json":
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(config)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	fmt.Println("OBSERVATORY CONFIGURATION")
	fmt.Println(strings.Repeat("=", 80))

	printRFSection(&config.RF)
	printDSPSection(&config.DSP)
	printGeoSection(&config.Geo)
	printSyntheticSection(&config.Synthetic)
	printLoggingSection(&config.Logging)

	fmt.Println()
	fmt.Println(logging.ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION VALID")
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("Config file: %s\n", used)
	} else {
		fmt.Println("Config file: (defaults only)")
	}
	fmt.Println(strings.Repeat("=", 80) + logging.ColorReset)

	return nil
}

func printRFSection(rf *configs.RFConfig) {
	printSection("RF FRONT END")
	printKeyValue("Center Frequency", fmt.Sprintf("%.6g Hz", rf.CenterFreqHz))
	printKeyValue("Sample Rate", fmt.Sprintf("%.6g sps", rf.SampleRateSps))
	printKeyValue("Bandwidth", fmt.Sprintf("%.6g Hz", rf.BandwidthHz))
	printKeyValue("Gain", fmt.Sprintf("%.1f dB", rf.GainDB))
	printKeyValue("FFT Size", fmt.Sprintf("%d", rf.FFTSize))
	printKeyValue("Window Type", rf.WindowType)
}

func printDSPSection(dsp *configs.DSPConfig) {
	printSection("DSP PIPELINE")
	printKeyValue("Frames Per Batch", fmt.Sprintf("%d", dsp.FramesPerBatch))
	printKeyValue("Smoothing Factor", fmt.Sprintf("%.3f", dsp.SmoothingFactor))
	printKeyValue("Welch Segments", fmt.Sprintf("%d", dsp.WelchSegments))
	printKeyValue("Noise Floor Percentile", fmt.Sprintf("%.1f", dsp.NoiseFloorPercentile))
	printKeyValue("Occupancy Threshold", fmt.Sprintf("%.1f dB", dsp.OccupancyThresholdDB))

	if len(dsp.Bands) > 0 {
		printSubsection(fmt.Sprintf("Bands (%d)", len(dsp.Bands)))
		for _, band := range dsp.Bands {
			printKeyValue("  "+band.Name,
				fmt.Sprintf("%.6g Hz - %.6g Hz", band.StartHz, band.EndHz))
		}
	}
}

func printGeoSection(geo *configs.GeoConfig) {
	printSection("GEO GRID")
	printKeyValue("Map Center Lat", fmt.Sprintf("%.6f", geo.MapCenterLat))
	printKeyValue("Map Center Lon", fmt.Sprintf("%.6f", geo.MapCenterLon))
	printKeyValue("Tile Size", fmt.Sprintf("%.0f m", geo.TileSizeMeters))
	printKeyValue("Grid Extent", fmt.Sprintf("%.0f m", geo.GridExtentMeters))
	printKeyValue("Aggregate Window", fmt.Sprintf("%d frames", geo.AggregateWindowFrames))
}

func printSyntheticSection(synthetic *configs.SyntheticConfig) {
	printSection("SYNTHETIC SOURCES")

	printSubsection("IQ")
	printKeyValue("  Carriers", fmt.Sprintf("%d", synthetic.IQ.NumCarriers))
	printKeyValue("  Carrier Bandwidth", fmt.Sprintf("%.6g Hz", synthetic.IQ.CarrierBwHz))
	printKeyValue("  Carrier Power", fmt.Sprintf("%.1f dB", synthetic.IQ.CarrierPowerDB))
	printKeyValue("  Noise Floor", fmt.Sprintf("%.1f dB", synthetic.IQ.NoiseFloorDB))
	printKeyValue("  Seed", fmt.Sprintf("%d", synthetic.IQ.Seed))

	interference := synthetic.IQ.Interference
	printSubsection("Interference")
	printKeyValue("  Enabled", fmt.Sprintf("%t", interference.Enabled))
	if interference.Enabled {
		printKeyValue("  Burst Jammer", fmt.Sprintf("%t", interference.BurstJammer.Enabled))
		if interference.BurstJammer.Enabled {
			printKeyValue("    Period", fmt.Sprintf("%d frames", interference.BurstJammer.PeriodFrames))
			printKeyValue("    Duty Cycle", fmt.Sprintf("%.2f", interference.BurstJammer.DutyCycle))
		}
		printKeyValue("  Swept Tone", fmt.Sprintf("%t", interference.SweptTone.Enabled))
		if interference.SweptTone.Enabled {
			printKeyValue("    Sweep Rate", fmt.Sprintf("%.6g Hz/s", interference.SweptTone.SweepRateHzPerSec))
		}
	}

	printSubsection("GPS")
	if synthetic.GPS.RouteCSV != "" {
		printKeyValue("  Route CSV", synthetic.GPS.RouteCSV)
	} else {
		printKeyValue("  Route", fmt.Sprintf("circle, %.0f m radius, %d waypoints",
			synthetic.GPS.CircleRadiusMeters, synthetic.GPS.CircleWaypoints))
	}
	printKeyValue("  Update Rate", fmt.Sprintf("%.1f Hz", synthetic.GPS.UpdateRateHz))
	printKeyValue("  Speed", fmt.Sprintf("%.1f m/s", synthetic.GPS.SpeedMps))
	printKeyValue("  Loop", fmt.Sprintf("%t", synthetic.GPS.Loop))
}

func printLoggingSection(cfg *configs.LoggingConfig) {
	printSection("LOGGING")
	printKeyValue("Level", cfg.Level)
	printKeyValue("Format", cfg.Format)
	if cfg.LogFile != "" {
		printKeyValue("Log File", cfg.LogFile)
	}
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}
