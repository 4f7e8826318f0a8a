package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Pouria-007/RF-Spectrum-Observatory/geo"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
)

var (
	gridProbeFrames int
	gridLocateLat   float64
	gridLocateLon   float64
)

// gridCmd represents the grid command
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Inspect the tile grid and probe the aggregation chain",
	Long: `Inspect the configured tile grid and probe the full processing chain.

The command prints the grid geometry, runs a structural self-check
(every tile center must locate back to its own tile), and then drives
synthetic frames through the pipeline and aggregator while counting GPS
fixes, aligned frames, and in-bounds positions. When no tiles come out,
the counters identify which stage is losing data.

Examples:
  # Diagnose with the default configuration
  observatory grid

  # Structural check only, no probe frames
  observatory grid --frames 0

  # Locate a coordinate on the grid
  observatory grid --frames 0 --lat 37.7952 --lon -122.4028

  # Longer probe against a custom config
  observatory grid --config observatory.yaml --frames 500`,
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().IntVar(&gridProbeFrames, "frames", 150,
		"number of probe frames to process (0 skips the probe)")
	gridCmd.Flags().Float64Var(&gridLocateLat, "lat", 0,
		"latitude to locate on the grid (requires --lon)")
	gridCmd.Flags().Float64Var(&gridLocateLon, "lon", 0,
		"longitude to locate on the grid (requires --lat)")
}

func runGrid(cmd *cobra.Command, args []string) error {
	config, err := loadValidatedConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(&config.Logging); err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Tile Grid Diagnostic")
	fmt.Println(strings.Repeat("=", 60))

	grid, err := buildGrid(config)
	if err != nil {
		return err
	}

	latMin, latMax, lonMin, lonMax := grid.Bounds()
	latDegPerM, lonDegPerM := geo.DegreesPerMeter(config.Geo.MapCenterLat)
	fmt.Printf("\nTile grid: %d x %d = %d tiles\n",
		grid.NumTilesX(), grid.NumTilesY(), len(grid.Tiles()))
	fmt.Printf("Grid bounds: lat=[%.6f, %.6f], lon=[%.6f, %.6f]\n",
		latMin, latMax, lonMin, lonMax)
	fmt.Printf("Tile size: %.0f m, extent: %.0f m\n",
		grid.TileSizeMeters(), grid.ExtentMeters())
	fmt.Printf("Degrees per meter: lat %.9f, lon %.9f\n", latDegPerM, lonDegPerM)
	fmt.Printf("Aggregation window: %d frames\n", config.Geo.AggregateWindowFrames)
	fmt.Println()

	// Structural self-check: every tile center must locate back to its
	// own tile, and the map center must land on the grid.
	mismatches := 0
	for _, tile := range grid.Tiles() {
		center := tile.Center()
		located, ok := grid.Locate(center.LatDeg, center.LonDeg)
		if !ok || located.ID != tile.ID {
			mismatches++
		}
	}
	if mismatches == 0 {
		printCheck("Tile centers locate back to their own tiles")
	} else {
		printFail("%d tile centers locate to the wrong tile", mismatches)
	}

	center := grid.Center()
	if tile, ok := grid.Locate(center.LatDeg, center.LonDeg); ok {
		printCheck("Map center (%.6f, %.6f) → %s", center.LatDeg, center.LonDeg, tile.ID)
	} else {
		printFail("Map center (%.6f, %.6f) is out of bounds", center.LatDeg, center.LonDeg)
	}

	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return fmt.Errorf("--lat and --lon must be given together")
		}
		if tile, ok := grid.Locate(gridLocateLat, gridLocateLon); ok {
			printCheck("(%.6f, %.6f) → %s lat=[%.6f, %.6f] lon=[%.6f, %.6f]",
				gridLocateLat, gridLocateLon, tile.ID,
				tile.LatMin, tile.LatMax, tile.LonMin, tile.LonMax)
		} else {
			printFail("(%.6f, %.6f) is out of bounds", gridLocateLat, gridLocateLon)
		}
	}

	if gridProbeFrames <= 0 {
		return nil
	}

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
	aggregator, err := geo.NewTileAggregator(grid, config.Geo.AggregateWindowFrames, len(config.DSP.Bands))
	if err != nil {
		return err
	}

	if err := frameSource.Start(); err != nil {
		return err
	}
	defer frameSource.Stop()
	if err := fixSource.Start(); err != nil {
		return err
	}
	defer fixSource.Stop()

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Probing %d frames...\n", gridProbeFrames)
	fmt.Println(strings.Repeat("=", 60))

	ctx := context.Background()
	gpsCount := 0
	alignedCount := 0
	inBoundsCount := 0
	var tiles []geo.TileSummary

	for i := 0; i < gridProbeFrames; i++ {
		frame, err := frameSource.Next(ctx)
		if err != nil {
			return err
		}

		if fix, ok := fixSource.Poll(frame.TimestampNs); ok {
			gpsCount++
			pipeline.AddFix(fix)
		}

		record, err := pipeline.Process(frame)
		if err != nil {
			return err
		}

		if record.HasPosition() {
			alignedCount++
			if tile, ok := grid.Locate(record.Position.LatDeg, record.Position.LonDeg); ok {
				inBoundsCount++
				if i < 10 {
					fmt.Printf("Frame %d: GPS (%.6f, %.6f) → %s\n",
						i, record.Position.LatDeg, record.Position.LonDeg, tile.ID)
				}
			} else if i < 10 {
				fmt.Printf("Frame %d: GPS (%.6f, %.6f) → OUT OF BOUNDS\n",
					i, record.Position.LatDeg, record.Position.LonDeg)
			}
		} else if i < 10 {
			fmt.Printf("Frame %d: NO GPS ALIGNMENT\n", i)
		}

		if err := aggregator.Add(record); err != nil {
			return err
		}

		if (i+1)%10 == 0 {
			fmt.Printf("  [%d frames] Buffer: %d/%d\n",
				i+1, aggregator.BufferLen(), aggregator.WindowFrames())
		}

		if aggregator.ShouldAggregate() {
			window := aggregator.Aggregate()
			printCheck("AGGREGATION at frame %d: %d tiles produced", i+1, len(window))
			for j, tile := range window {
				if j >= 3 {
					break
				}
				fmt.Printf("  - %s: %d frames, bandpower=%v\n",
					tile.TileID, tile.FrameCount, tile.BandpowerMeanDB)
			}
			tiles = append(tiles, window...)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Final flush...")
	finalTiles := aggregator.Flush()
	fmt.Printf("Final tiles: %d\n", len(finalTiles))
	tiles = append(tiles, finalTiles...)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("GPS fixes received: %d / %d\n", gpsCount, gridProbeFrames)
	fmt.Printf("GPS aligned frames: %d / %d\n", alignedCount, gridProbeFrames)
	fmt.Printf("Frames in grid bounds: %d / %d\n", inBoundsCount, gridProbeFrames)
	fmt.Printf("Records dropped: %d\n", aggregator.Dropped())
	fmt.Printf("Tiles produced: %d\n", len(tiles))

	if len(tiles) == 0 {
		fmt.Printf("\n%sPROBLEM IDENTIFIED:%s\n", logging.ColorRed, logging.ColorReset)
		switch {
		case gpsCount == 0:
			fmt.Println("  → GPS source not producing fixes")
		case alignedCount == 0:
			fmt.Println("  → GPS/IQ alignment failing (timestamp mismatch)")
		case inBoundsCount == 0:
			fmt.Println("  → GPS coordinates outside tile grid bounds")
		default:
			fmt.Println("  → Aggregation issue (records not reduced to tiles)")
		}
		return nil
	}

	fmt.Printf("\n%sSUCCESS:%s %d tiles generated\n",
		logging.ColorGreen, logging.ColorReset, len(tiles))
	fmt.Println("\nTile details:")
	for i, tile := range latestPerTile(tiles) {
		if i >= 5 {
			break
		}
		fmt.Printf("  %s: count=%d, lat=[%.6f, %.6f], lon=[%.6f, %.6f]\n",
			tile.TileID, tile.FrameCount, tile.LatMin, tile.LatMax, tile.LonMin, tile.LonMax)
	}
	return nil
}

func printCheck(format string, args ...any) {
	fmt.Printf("%s✓%s %s\n", logging.ColorGreen, logging.ColorReset,
		fmt.Sprintf(format, args...))
}

func printFail(format string, args ...any) {
	fmt.Printf("%s✗%s %s\n", logging.ColorRed, logging.ColorReset,
		fmt.Sprintf(format, args...))
}
