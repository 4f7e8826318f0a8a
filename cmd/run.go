package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/Pouria-007/RF-Spectrum-Observatory/configs"
	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp"
	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/spectral"
	"github.com/Pouria-007/RF-Spectrum-Observatory/dsp/windowing"
	"github.com/Pouria-007/RF-Spectrum-Observatory/geo"
	"github.com/Pouria-007/RF-Spectrum-Observatory/ingest"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

var (
	runFrames      int
	runGeoJSONPath string
	runRecordsPath string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the acquisition and aggregation loop",
	Long: `Run the full observatory chain for a fixed number of frames.

Synthetic IQ frames are processed into spectral feature records, aligned
with synthetic GPS fixes, and aggregated onto the tile grid. The command
prints a run summary with noise floor statistics, per-band features, and
the tiles touched, and can export the final heatmap as GeoJSON.

Examples:
  # Process 500 frames with the default configuration
  observatory run

  # Longer run with a custom config and JSON output
  observatory run --config observatory.yaml --frames 5000 -o json

  # Export the tile heatmap and the raw feature records
  observatory run --geojson heatmap.geojson --records records.ndjson`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runFrames, "frames", 500,
		"number of frames to process")
	runCmd.Flags().StringVar(&runGeoJSONPath, "geojson", "",
		"write the final tile heatmap to this GeoJSON file")
	runCmd.Flags().StringVar(&runRecordsPath, "records", "",
		"write feature records to this NDJSON file")
}

// bandRunStats summarizes one configured band over a whole run.
type bandRunStats struct {
	Name             string  `json:"name" yaml:"name"`
	BandpowerMeanDB  float64 `json:"bandpower_mean_db" yaml:"bandpower_mean_db"`
	BandpowerMaxDB   float64 `json:"bandpower_max_db" yaml:"bandpower_max_db"`
	OccupancyMeanPct float64 `json:"occupancy_mean_pct" yaml:"occupancy_mean_pct"`
}

// runSummary is the end-of-run report printed in the selected output format.
type runSummary struct {
	RunID             string            `json:"run_id" yaml:"run_id"`
	FramesProcessed   int               `json:"frames_processed" yaml:"frames_processed"`
	FramesFailed      int               `json:"frames_failed" yaml:"frames_failed"`
	FramesAligned     int               `json:"frames_aligned" yaml:"frames_aligned"`
	RecordsDropped    int               `json:"records_dropped" yaml:"records_dropped"`
	ElapsedSec        float64           `json:"elapsed_sec" yaml:"elapsed_sec"`
	FramesPerSec      float64           `json:"frames_per_sec" yaml:"frames_per_sec"`
	NoiseFloorMeanDB  float64           `json:"noise_floor_mean_db" yaml:"noise_floor_mean_db"`
	NoiseFloorStdDB   float64           `json:"noise_floor_std_db" yaml:"noise_floor_std_db"`
	WelchNoiseFloorDB float64           `json:"welch_noise_floor_db" yaml:"welch_noise_floor_db"`
	PeakPSDDB         float64           `json:"peak_psd_db" yaml:"peak_psd_db"`
	PeakFreqHz        float64           `json:"peak_freq_hz" yaml:"peak_freq_hz"`
	Bands             []bandRunStats    `json:"bands" yaml:"bands"`
	AggregationRuns   int               `json:"aggregation_runs" yaml:"aggregation_runs"`
	TilesTouched      int               `json:"tiles_touched" yaml:"tiles_touched"`
	Tiles             []geo.TileSummary `json:"tiles" yaml:"tiles"`
}

func runRun(cmd *cobra.Command, args []string) error {
	config, err := loadValidatedConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(&config.Logging); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := logging.WithFields(logging.Fields{
		"component": "run",
		"run_id":    runID,
	})

	frameSource, err := buildFrameSource(config)
	if err != nil {
		return err
	}
	fixSource, err := buildFixSource(config)
	if err != nil {
		return err
	}
	pipeline, err := buildPipeline(config)
	if err != nil {
		return err
	}
	grid, err := buildGrid(config)
	if err != nil {
		return err
	}
	aggregator, err := geo.NewTileAggregator(grid, config.Geo.AggregateWindowFrames, len(config.DSP.Bands))
	if err != nil {
		return err
	}
	history, err := spectral.NewSpectrogramBuffer(config.Geo.AggregateWindowFrames, config.RF.FFTSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := frameSource.Start(); err != nil {
		return err
	}
	defer frameSource.Stop()
	if err := fixSource.Start(); err != nil {
		return err
	}
	defer fixSource.Stop()

	var recordsEnc *json.Encoder
	if runRecordsPath != "" {
		recordsFile, err := os.Create(runRecordsPath)
		if err != nil {
			return fmt.Errorf("failed to create records file: %w", err)
		}
		defer recordsFile.Close()
		recordsEnc = json.NewEncoder(recordsFile)
	}

	logger.Info("starting acquisition", logging.Fields{
		"frames":          runFrames,
		"center_freq_hz":  config.RF.CenterFreqHz,
		"sample_rate_sps": config.RF.SampleRateSps,
		"fft_size":        config.RF.FFTSize,
		"grid_tiles":      grid.NumTilesX() * grid.NumTilesY(),
	})

	var (
		summaries   []geo.TileSummary
		noiseFloors []float64
		bandpower   = make([][]float64, len(config.DSP.Bands))
		occupancy   = make([][]float64, len(config.DSP.Bands))
		welchFrames []*rf.Frame
		lastBins    []float64
		aligned     int
		failed      int
		aggRuns     int
	)

	started := time.Now()

	for i := 0; i < runFrames; i++ {
		frame, err := frameSource.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("acquisition interrupted", logging.Fields{"frame": i})
				break
			}
			return err
		}

		if fix, ok := fixSource.Poll(frame.TimestampNs); ok {
			pipeline.AddFix(fix)
		}

		record, err := pipeline.Process(frame)
		if err != nil {
			failed++
			logger.Error(err, "frame processing failed", logging.Fields{"frame_id": frame.ID})
			continue
		}

		if record.HasPosition() {
			aligned++
		}

		noiseFloors = append(noiseFloors, record.NoiseFloorDB)
		for b := range bandpower {
			bandpower[b] = append(bandpower[b], record.BandpowerDB[b])
			occupancy[b] = append(occupancy[b], record.OccupancyPct[b])
		}
		lastBins = record.FreqBinsHz

		if err := history.Push(record.PSDDB); err != nil {
			return err
		}

		welchFrames = append(welchFrames, frame)
		if len(welchFrames) > config.DSP.WelchSegments {
			welchFrames = welchFrames[1:]
		}

		if recordsEnc != nil {
			if err := recordsEnc.Encode(record); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}

		if err := aggregator.Add(record); err != nil {
			logger.Warn("record rejected by aggregator", logging.Fields{
				"frame_id": record.FrameID,
				"error":    err.Error(),
			})
		}

		if aggregator.ShouldAggregate() {
			tiles := aggregator.Aggregate()
			aggRuns++
			summaries = append(summaries, tiles...)
			logger.Debug("aggregated window", logging.Fields{
				"frame": i + 1,
				"tiles": len(tiles),
			})
		}

		if (i+1)%config.DSP.FramesPerBatch == 0 {
			logger.Debug("batch complete", logging.Fields{
				"frames":   i + 1,
				"buffered": aggregator.BufferLen(),
			})
		}
	}

	elapsed := time.Since(started)

	if tiles := aggregator.Flush(); len(tiles) > 0 {
		aggRuns++
		summaries = append(summaries, tiles...)
	}

	summary := runSummary{
		RunID:           runID,
		FramesProcessed: len(noiseFloors),
		FramesFailed:    failed,
		FramesAligned:   aligned,
		RecordsDropped:  aggregator.Dropped(),
		ElapsedSec:      elapsed.Seconds(),
		AggregationRuns: aggRuns,
	}
	if summary.ElapsedSec > 0 {
		summary.FramesPerSec = float64(summary.FramesProcessed) / summary.ElapsedSec
	}
	if len(noiseFloors) > 0 {
		summary.NoiseFloorMeanDB = stat.Mean(noiseFloors, nil)
		summary.NoiseFloorStdDB = stat.StdDev(noiseFloors, nil)
	}
	for b, band := range config.DSP.Bands {
		if len(bandpower[b]) == 0 {
			continue
		}
		summary.Bands = append(summary.Bands, bandRunStats{
			Name:             band.Name,
			BandpowerMeanDB:  stat.Mean(bandpower[b], nil),
			BandpowerMaxDB:   floats.Max(bandpower[b]),
			OccupancyMeanPct: stat.Mean(occupancy[b], nil),
		})
	}

	if len(welchFrames) > 0 {
		spec, err := pipeline.WelchAverage(welchFrames)
		if err != nil {
			return err
		}
		floorEst, err := spectral.NewNoiseFloorEstimator(config.DSP.NoiseFloorPercentile)
		if err != nil {
			return err
		}
		welchFloor, err := floorEst.Estimate(spec.PSDDB)
		if err != nil {
			return err
		}
		summary.WelchNoiseFloorDB = welchFloor
	}

	// Max-hold over the trailing spectrogram window.
	if history.Len() > 0 {
		peakDB := math.Inf(-1)
		peakBin := 0
		for _, row := range history.Rows() {
			if i := floats.MaxIdx(row); row[i] > peakDB {
				peakDB = row[i]
				peakBin = i
			}
		}
		summary.PeakPSDDB = peakDB
		if peakBin < len(lastBins) {
			summary.PeakFreqHz = config.RF.CenterFreqHz + lastBins[peakBin]
		}
	}

	summary.Tiles = latestPerTile(summaries)
	summary.TilesTouched = len(summary.Tiles)

	if runGeoJSONPath != "" {
		if err := geo.WriteSummariesGeoJSON(runGeoJSONPath, summary.Tiles); err != nil {
			return err
		}
		logger.Info("wrote tile heatmap", logging.Fields{
			"path":  runGeoJSONPath,
			"tiles": summary.TilesTouched,
		})
	}

	logger.Info("run complete", logging.Fields{
		"frames":  summary.FramesProcessed,
		"aligned": summary.FramesAligned,
		"tiles":   summary.TilesTouched,
		"elapsed": elapsed.Round(time.Millisecond).String(),
	})

	return printRunSummary(&summary)
}

// latestPerTile keeps the most recent summary per tile, ordered by tile ID.
// Earlier aggregation windows for the same tile are superseded.
func latestPerTile(summaries []geo.TileSummary) []geo.TileSummary {
	byID := make(map[string]geo.TileSummary, len(summaries))
	for _, s := range summaries {
		byID[s.TileID] = s
	}

	latest := make([]geo.TileSummary, 0, len(byID))
	for _, s := range byID {
		latest = append(latest, s)
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i].TileID < latest[j].TileID })
	return latest
}

func printRunSummary(summary *runSummary) error {
	switch viper.GetString("output_format") {
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		printRunSummaryTable(summary)
	}
	return nil
}

func printRunSummaryTable(summary *runSummary) {
	printSection("RUN SUMMARY")
	printKeyValue("Run ID", summary.RunID)
	printKeyValue("Frames Processed", fmt.Sprintf("%d", summary.FramesProcessed))
	printKeyValue("Frames Failed", fmt.Sprintf("%d", summary.FramesFailed))
	printKeyValue("Frames Aligned", fmt.Sprintf("%d", summary.FramesAligned))
	printKeyValue("Records Dropped", fmt.Sprintf("%d", summary.RecordsDropped))
	printKeyValue("Elapsed", fmt.Sprintf("%.2f s", summary.ElapsedSec))
	printKeyValue("Throughput", fmt.Sprintf("%.0f frames/s", summary.FramesPerSec))
	printKeyValue("Noise Floor Mean", fmt.Sprintf("%.2f dB", summary.NoiseFloorMeanDB))
	printKeyValue("Noise Floor Std", fmt.Sprintf("%.2f dB", summary.NoiseFloorStdDB))
	printKeyValue("Welch Noise Floor", fmt.Sprintf("%.2f dB", summary.WelchNoiseFloorDB))
	printKeyValue("Peak PSD", fmt.Sprintf("%.2f dB @ %.6g Hz", summary.PeakPSDDB, summary.PeakFreqHz))

	if len(summary.Bands) > 0 {
		printSection("BAND FEATURES")
		for _, band := range summary.Bands {
			printSubsection(band.Name)
			printKeyValue("  Bandpower Mean", fmt.Sprintf("%.2f dB", band.BandpowerMeanDB))
			printKeyValue("  Bandpower Max", fmt.Sprintf("%.2f dB", band.BandpowerMaxDB))
			printKeyValue("  Occupancy Mean", fmt.Sprintf("%.1f %%", band.OccupancyMeanPct))
		}
	}

	printSection("TILE HEATMAP")
	printKeyValue("Aggregation Runs", fmt.Sprintf("%d", summary.AggregationRuns))
	printKeyValue("Tiles Touched", fmt.Sprintf("%d", summary.TilesTouched))
	for i, tile := range summary.Tiles {
		if i >= 5 {
			printKeyValue("...", fmt.Sprintf("%d more tiles", summary.TilesTouched-5))
			break
		}
		line := fmt.Sprintf("%d frames", tile.FrameCount)
		if len(tile.BandpowerMaxDB) > 0 {
			line += fmt.Sprintf(", peak %.1f dB", floats.Max(tile.BandpowerMaxDB))
		}
		printKeyValue(tile.TileID, line)
	}
}

// buildFrameSource constructs the synthetic IQ source from the resolved config.
func buildFrameSource(config *configs.Config) (*ingest.SyntheticFrameSource, error) {
	return ingest.NewSyntheticFrameSource(ingest.SyntheticIQConfig{
		CenterFreqHz:       config.RF.CenterFreqHz,
		SampleRateHz:       config.RF.SampleRateSps,
		FrameSize:          config.RF.FFTSize,
		NumCarriers:        config.Synthetic.IQ.NumCarriers,
		CarrierBandwidthHz: config.Synthetic.IQ.CarrierBwHz,
		CarrierPowerDB:     config.Synthetic.IQ.CarrierPowerDB,
		NoiseFloorDB:       config.Synthetic.IQ.NoiseFloorDB,
		Interference:       config.Synthetic.IQ.Interference,
		Seed:               config.Synthetic.IQ.Seed,
	})
}

// buildFixSource constructs the GPS source: a CSV route when configured,
// otherwise a circular route around the map center.
func buildFixSource(config *configs.Config) (*ingest.RouteFixSource, error) {
	gps := config.Synthetic.GPS
	if gps.RouteCSV != "" {
		return ingest.NewRouteFixSourceFromCSV(gps.RouteCSV, gps.UpdateRateHz, gps.SpeedMps, gps.Loop)
	}

	route := ingest.CircleRoute(config.Geo.MapCenterLat, config.Geo.MapCenterLon,
		gps.CircleRadiusMeters, gps.CircleWaypoints, gps.SpeedMps)
	return ingest.NewRouteFixSource(route, gps.UpdateRateHz, gps.SpeedMps, gps.Loop)
}

// buildPipeline constructs the spectral pipeline from the resolved config.
func buildPipeline(config *configs.Config) (*dsp.Pipeline, error) {
	cfg := dsp.DefaultPipelineConfig()
	cfg.FFTSize = config.RF.FFTSize
	cfg.WindowType = windowing.Type(config.RF.WindowType)
	cfg.SmoothingAlpha = config.DSP.SmoothingFactor
	cfg.NoiseFloorPercentile = config.DSP.NoiseFloorPercentile
	cfg.OccupancyThresholdDB = config.DSP.OccupancyThresholdDB
	cfg.Bands = config.DSP.RFBands()
	return dsp.NewPipeline(cfg)
}

// buildGrid constructs the tile grid from the resolved config.
func buildGrid(config *configs.Config) (*geo.TileGrid, error) {
	return geo.NewTileGrid(config.Geo.MapCenterLat, config.Geo.MapCenterLon,
		config.Geo.TileSizeMeters, config.Geo.GridExtentMeters)
}
