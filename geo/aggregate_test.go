package geo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

func positionedRecord(id uint64, tsNs int64, pos rf.LatLon, bandpower, occupancy []float64) *rf.FeatureRecord {
	return &rf.FeatureRecord{
		FrameID:      id,
		TimestampNs:  tsNs,
		CenterFreqHz: 150e6,
		SampleRateHz: 1e6,
		NoiseFloorDB: -100,
		BandpowerDB:  bandpower,
		OccupancyPct: occupancy,
		Position:     &pos,
	}
}

func TestNewTileAggregatorValidation(t *testing.T) {
	grid := testGrid(t)

	tests := []struct {
		name   string
		grid   *TileGrid
		window int
		bands  int
	}{
		{"nil grid", nil, 5, 2},
		{"zero window", grid, 0, 2},
		{"negative bands", grid, 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := NewTileAggregator(tt.grid, tt.window, tt.bands)
			assert.Error(t, err)
			assert.Nil(t, agg)
			assert.True(t, rf.IsConfigError(err))
		})
	}
}

func TestAggregateWindowScenario(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 5, 1)
	require.NoError(t, err)

	tileA, ok := grid.TileByID(TileID(2, 3))
	require.True(t, ok)
	tileB, ok := grid.TileByID(TileID(7, 7))
	require.True(t, ok)

	records := []*rf.FeatureRecord{
		positionedRecord(1, 100, tileA.Center(), []float64{-50}, []float64{10}),
		positionedRecord(2, 200, tileA.Center(), []float64{-60}, []float64{20}),
		positionedRecord(3, 300, tileB.Center(), []float64{-70}, []float64{30}),
		positionedRecord(4, 400, tileA.Center(), []float64{-40}, []float64{60}),
		positionedRecord(5, 500, tileB.Center(), []float64{-80}, []float64{50}),
	}

	for i, rec := range records {
		assert.False(t, agg.ShouldAggregate(), "window full after %d adds", i)
		require.NoError(t, agg.Add(rec))
	}
	assert.True(t, agg.ShouldAggregate())
	assert.Equal(t, 5, agg.BufferLen())

	got := agg.Aggregate()
	assert.Zero(t, agg.BufferLen())

	want := []TileSummary{
		{
			TileID: tileA.ID, TileX: 2, TileY: 3,
			LatMin: tileA.LatMin, LatMax: tileA.LatMax,
			LonMin: tileA.LonMin, LonMax: tileA.LonMax,
			FrameCount:     3,
			TimestampMinNs: 100, TimestampMaxNs: 400,
			BandpowerMeanDB:  []float64{-50},
			BandpowerMaxDB:   []float64{-40},
			OccupancyMeanPct: []float64{30},
		},
		{
			TileID: tileB.ID, TileX: 7, TileY: 7,
			LatMin: tileB.LatMin, LatMax: tileB.LatMax,
			LonMin: tileB.LonMin, LonMax: tileB.LonMax,
			FrameCount:     2,
			TimestampMinNs: 300, TimestampMaxNs: 500,
			BandpowerMeanDB:  []float64{-75},
			BandpowerMaxDB:   []float64{-70},
			OccupancyMeanPct: []float64{40},
		},
	}

	sortByTile := cmpopts.SortSlices(func(a, b TileSummary) bool {
		return a.TileID < b.TileID
	})
	if diff := cmp.Diff(want, got, sortByTile, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}

	// No adds since the last window: nothing to aggregate.
	assert.Empty(t, agg.Aggregate())
}

func TestAddDropsUnpositionedRecord(t *testing.T) {
	agg, err := NewTileAggregator(testGrid(t), 5, 1)
	require.NoError(t, err)

	rec := positionedRecord(1, 100, rf.LatLon{}, []float64{-50}, []float64{10})
	rec.Position = nil

	require.NoError(t, agg.Add(rec))
	assert.Zero(t, agg.BufferLen())
	assert.Equal(t, 1, agg.Dropped())
}

func TestAddDropsOutOfBoundsRecord(t *testing.T) {
	agg, err := NewTileAggregator(testGrid(t), 5, 1)
	require.NoError(t, err)

	rec := positionedRecord(1, 100,
		rf.LatLon{LatDeg: 48.85, LonDeg: 2.35}, []float64{-50}, []float64{10})

	require.NoError(t, agg.Add(rec))
	assert.Zero(t, agg.BufferLen())
	assert.Equal(t, 1, agg.Dropped())
}

func TestAddRejectsBandMismatch(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 5, 2)
	require.NoError(t, err)

	pos := grid.Center()

	err = agg.Add(positionedRecord(1, 100, pos, []float64{-50}, []float64{10, 20}))
	require.Error(t, err)
	assert.True(t, rf.IsShapeError(err))
	assert.Zero(t, agg.BufferLen())

	err = agg.Add(positionedRecord(2, 200, pos, []float64{-50, -60}, []float64{10}))
	require.Error(t, err)
	assert.True(t, rf.IsShapeError(err))
	assert.Zero(t, agg.BufferLen())
}

func TestFlushDrainsPartialWindow(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 10, 1)
	require.NoError(t, err)

	require.NoError(t, agg.Add(positionedRecord(1, 100, grid.Center(), []float64{-50}, []float64{10})))
	require.NoError(t, agg.Add(positionedRecord(2, 200, grid.Center(), []float64{-60}, []float64{20})))

	assert.False(t, agg.ShouldAggregate())

	summaries := agg.Flush()
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].FrameCount)
	assert.Zero(t, agg.BufferLen())

	assert.Empty(t, agg.Flush())
}

func TestAggregateAnomalyScore(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 5, 1)
	require.NoError(t, err)

	low, high := 0.3, 0.9
	recs := []*rf.FeatureRecord{
		positionedRecord(1, 100, grid.Center(), []float64{-50}, []float64{10}),
		positionedRecord(2, 200, grid.Center(), []float64{-50}, []float64{10}),
		positionedRecord(3, 300, grid.Center(), []float64{-50}, []float64{10}),
	}
	recs[1].AnomalyScore = &high
	recs[2].AnomalyScore = &low

	for _, rec := range recs {
		require.NoError(t, agg.Add(rec))
	}

	summaries := agg.Aggregate()
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].AnomalyScoreMax)
	assert.InDelta(t, high, *summaries[0].AnomalyScoreMax, 1e-12)
}

func TestAggregateWithoutAnomalyScores(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 5, 1)
	require.NoError(t, err)

	require.NoError(t, agg.Add(positionedRecord(1, 100, grid.Center(), []float64{-50}, []float64{10})))

	summaries := agg.Aggregate()
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].AnomalyScoreMax)
}

func TestAggregateZeroBands(t *testing.T) {
	grid := testGrid(t)
	agg, err := NewTileAggregator(grid, 5, 0)
	require.NoError(t, err)

	rec := positionedRecord(1, 100, grid.Center(), nil, nil)
	require.NoError(t, agg.Add(rec))

	summaries := agg.Aggregate()
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].FrameCount)
	assert.Empty(t, summaries[0].BandpowerMeanDB)
}

func TestAccessors(t *testing.T) {
	agg, err := NewTileAggregator(testGrid(t), 7, 1)
	require.NoError(t, err)

	assert.Equal(t, 7, agg.WindowFrames())
	assert.Zero(t, agg.BufferLen())
	assert.Zero(t, agg.Dropped())
}
