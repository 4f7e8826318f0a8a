package geo

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// TileSummary holds the grouped statistics for one tile over one
// aggregation window. Per-band slices are ordered as the pipeline band
// list. AnomalyScoreMax is nil when no contributing record carried a
// score. Summaries are immutable once returned.
type TileSummary struct {
	TileID           string    `json:"tile_id" yaml:"tile_id"`
	TileX            int       `json:"tile_x" yaml:"tile_x"`
	TileY            int       `json:"tile_y" yaml:"tile_y"`
	LatMin           float64   `json:"lat_min" yaml:"lat_min"`
	LatMax           float64   `json:"lat_max" yaml:"lat_max"`
	LonMin           float64   `json:"lon_min" yaml:"lon_min"`
	LonMax           float64   `json:"lon_max" yaml:"lon_max"`
	FrameCount       int       `json:"frame_count" yaml:"frame_count"`
	TimestampMinNs   int64     `json:"timestamp_min_ns" yaml:"timestamp_min_ns"`
	TimestampMaxNs   int64     `json:"timestamp_max_ns" yaml:"timestamp_max_ns"`
	BandpowerMeanDB  []float64 `json:"bandpower_mean_db" yaml:"bandpower_mean_db"`
	BandpowerMaxDB   []float64 `json:"bandpower_max_db" yaml:"bandpower_max_db"`
	OccupancyMeanPct []float64 `json:"occupancy_mean_pct" yaml:"occupancy_mean_pct"`
	AnomalyScoreMax  *float64  `json:"anomaly_score_max,omitempty" yaml:"anomaly_score_max,omitempty"`
}

// bufferedRow is one tile-tagged feature record awaiting aggregation.
// The band slices alias the source record, which is immutable once
// emitted by the pipeline.
type bufferedRow struct {
	frameID      uint64
	timestampNs  int64
	tile         *Tile
	bandpowerDB  []float64
	occupancyPct []float64
	anomalyScore *float64
}

// TileAggregator buffers positioned feature records and, once the
// configured window fills, reduces them into one TileSummary per
// populated tile. A single aggregator instance is not safe for
// concurrent use.
type TileAggregator struct {
	grid         *TileGrid
	windowFrames int
	numBands     int

	rows    []bufferedRow
	dropped int

	logger logging.Logger
}

// NewTileAggregator creates an aggregator over grid emitting after
// windowFrames buffered records, expecting numBands band features per
// record.
func NewTileAggregator(grid *TileGrid, windowFrames, numBands int) (*TileAggregator, error) {
	if grid == nil {
		return nil, rf.NewConfigError("geo.tile_grid", "grid must not be nil")
	}
	if windowFrames < 1 {
		return nil, rf.NewConfigError("geo.aggregate_window_frames",
			"window must be at least one frame")
	}
	if numBands < 0 {
		return nil, rf.NewConfigError("dsp.bands", "band count must not be negative")
	}

	return &TileAggregator{
		grid:         grid,
		windowFrames: windowFrames,
		numBands:     numBands,
		rows:         make([]bufferedRow, 0, windowFrames),
		logger: logging.WithFields(logging.Fields{
			"component": "tile_aggregator",
		}),
	}, nil
}

// Add buffers one feature record. Records without a position and
// records whose position falls outside the grid are dropped silently.
// A record whose band slices do not match the configured band count
// fails with rf.ShapeError and is not buffered.
func (a *TileAggregator) Add(record *rf.FeatureRecord) error {
	if !record.HasPosition() {
		a.dropped++
		return nil
	}

	tile, ok := a.grid.Locate(record.Position.LatDeg, record.Position.LonDeg)
	if !ok {
		a.dropped++
		return nil
	}

	if len(record.BandpowerDB) != a.numBands {
		return rf.NewShapeError("bandpower features", a.numBands, len(record.BandpowerDB))
	}
	if len(record.OccupancyPct) != a.numBands {
		return rf.NewShapeError("occupancy features", a.numBands, len(record.OccupancyPct))
	}

	a.rows = append(a.rows, bufferedRow{
		frameID:      record.FrameID,
		timestampNs:  record.TimestampNs,
		tile:         tile,
		bandpowerDB:  record.BandpowerDB,
		occupancyPct: record.OccupancyPct,
		anomalyScore: record.AnomalyScore,
	})
	return nil
}

// ShouldAggregate reports whether the buffer has reached the
// configured window size.
func (a *TileAggregator) ShouldAggregate() bool {
	return len(a.rows) >= a.windowFrames
}

// Aggregate groups the buffered records by tile and reduces each group
// to a TileSummary: contributing count, timestamp range, per-band mean
// and max bandpower, per-band mean occupancy, and max anomaly score
// when present. The buffer is cleared unconditionally, so a second
// call without intervening adds returns nil. Summary order is
// unspecified.
func (a *TileAggregator) Aggregate() []TileSummary {
	if len(a.rows) == 0 {
		return nil
	}

	groups := make(map[string]*tileAccumulator)
	for i := range a.rows {
		row := &a.rows[i]
		acc, ok := groups[row.tile.ID]
		if !ok {
			acc = newTileAccumulator(row.tile, a.numBands)
			groups[row.tile.ID] = acc
		}
		acc.add(row)
	}

	summaries := make([]TileSummary, 0, len(groups))
	for _, acc := range groups {
		summaries = append(summaries, acc.summary())
	}

	a.logger.Debug("aggregation window reduced", logging.Fields{
		"rows":  len(a.rows),
		"tiles": len(summaries),
	})
	a.rows = a.rows[:0]

	return summaries
}

// Flush drains the buffer regardless of fullness. Identical to
// Aggregate, intended for end-of-run draining.
func (a *TileAggregator) Flush() []TileSummary {
	return a.Aggregate()
}

// BufferLen returns the number of buffered records.
func (a *TileAggregator) BufferLen() int {
	return len(a.rows)
}

// WindowFrames returns the configured aggregation window size.
func (a *TileAggregator) WindowFrames() int {
	return a.windowFrames
}

// Dropped returns how many records were discarded for missing or
// out-of-bounds positions since construction.
func (a *TileAggregator) Dropped() int {
	return a.dropped
}

// tileAccumulator reduces the rows of one tile group in a single pass.
type tileAccumulator struct {
	tile         *Tile
	count        int
	tsMin        int64
	tsMax        int64
	bandpowerSum []float64
	bandpowerMax []float64
	occupancySum []float64
	anomalyMax   *float64
}

func newTileAccumulator(tile *Tile, numBands int) *tileAccumulator {
	return &tileAccumulator{
		tile:         tile,
		tsMin:        math.MaxInt64,
		tsMax:        math.MinInt64,
		bandpowerSum: make([]float64, numBands),
		bandpowerMax: make([]float64, numBands),
		occupancySum: make([]float64, numBands),
	}
}

func (acc *tileAccumulator) add(row *bufferedRow) {
	if acc.count == 0 {
		copy(acc.bandpowerMax, row.bandpowerDB)
	} else {
		for i, v := range row.bandpowerDB {
			if v > acc.bandpowerMax[i] {
				acc.bandpowerMax[i] = v
			}
		}
	}

	floats.Add(acc.bandpowerSum, row.bandpowerDB)
	floats.Add(acc.occupancySum, row.occupancyPct)

	if row.timestampNs < acc.tsMin {
		acc.tsMin = row.timestampNs
	}
	if row.timestampNs > acc.tsMax {
		acc.tsMax = row.timestampNs
	}

	if row.anomalyScore != nil {
		if acc.anomalyMax == nil || *row.anomalyScore > *acc.anomalyMax {
			score := *row.anomalyScore
			acc.anomalyMax = &score
		}
	}

	acc.count++
}

func (acc *tileAccumulator) summary() TileSummary {
	bandpowerMean := make([]float64, len(acc.bandpowerSum))
	copy(bandpowerMean, acc.bandpowerSum)
	floats.Scale(1/float64(acc.count), bandpowerMean)

	occupancyMean := make([]float64, len(acc.occupancySum))
	copy(occupancyMean, acc.occupancySum)
	floats.Scale(1/float64(acc.count), occupancyMean)

	bandpowerMax := make([]float64, len(acc.bandpowerMax))
	copy(bandpowerMax, acc.bandpowerMax)

	return TileSummary{
		TileID:           acc.tile.ID,
		TileX:            acc.tile.X,
		TileY:            acc.tile.Y,
		LatMin:           acc.tile.LatMin,
		LatMax:           acc.tile.LatMax,
		LonMin:           acc.tile.LonMin,
		LonMax:           acc.tile.LonMax,
		FrameCount:       acc.count,
		TimestampMinNs:   acc.tsMin,
		TimestampMaxNs:   acc.tsMax,
		BandpowerMeanDB:  bandpowerMean,
		BandpowerMaxDB:   bandpowerMax,
		OccupancyMeanPct: occupancyMean,
		AnomalyScoreMax:  acc.anomalyMax,
	}
}
