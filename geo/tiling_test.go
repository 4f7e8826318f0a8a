package geo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

const (
	testCenterLat = 37.0
	testCenterLon = -122.0
)

func testGrid(t *testing.T) *TileGrid {
	t.Helper()
	grid, err := NewTileGrid(testCenterLat, testCenterLon, 100, 1000)
	require.NoError(t, err)
	return grid
}

func TestNewTileGridValidation(t *testing.T) {
	tests := []struct {
		name     string
		tileSize float64
		extent   float64
	}{
		{"zero tile size", 0, 1000},
		{"negative tile size", -10, 1000},
		{"zero extent", 100, 0},
		{"negative extent", 100, -500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := NewTileGrid(testCenterLat, testCenterLon, tt.tileSize, tt.extent)
			assert.Error(t, err)
			assert.Nil(t, grid)
			assert.True(t, rf.IsConfigError(err))
		})
	}
}

func TestGridDimensions(t *testing.T) {
	grid := testGrid(t)

	assert.Equal(t, 10, grid.NumTilesX())
	assert.Equal(t, 10, grid.NumTilesY())
	assert.Len(t, grid.Tiles(), 100)

	latMin, latMax, lonMin, lonMax := grid.Bounds()
	assert.Less(t, latMin, testCenterLat)
	assert.Greater(t, latMax, testCenterLat)
	assert.Less(t, lonMin, testCenterLon)
	assert.Greater(t, lonMax, testCenterLon)

	// Bounds are symmetric around the center.
	assert.InDelta(t, testCenterLat-latMin, latMax-testCenterLat, 1e-12)
	assert.InDelta(t, testCenterLon-lonMin, lonMax-testCenterLon, 1e-12)
}

func TestGridRoundsUpTileCount(t *testing.T) {
	grid, err := NewTileGrid(testCenterLat, testCenterLon, 100, 250)
	require.NoError(t, err)

	assert.Equal(t, 3, grid.NumTilesX())
	assert.Equal(t, 3, grid.NumTilesY())
	assert.Len(t, grid.Tiles(), 9)
}

func TestLocateGridCenter(t *testing.T) {
	grid := testGrid(t)

	tile, ok := grid.Locate(testCenterLat, testCenterLon)
	require.True(t, ok)
	assert.Equal(t, 5, tile.X)
	assert.Equal(t, 5, tile.Y)
	assert.Equal(t, "tile_x5_y5", tile.ID)
}

func TestLocateOutOfBounds(t *testing.T) {
	grid := testGrid(t)
	latMin, latMax, _, lonMax := grid.Bounds()

	tests := []struct {
		name string
		lat  float64
		lon  float64
	}{
		{"north of grid", latMax + 0.001, testCenterLon},
		{"south of grid", latMin - 0.001, testCenterLon},
		{"east of grid", testCenterLat, lonMax + 0.001},
		{"far away", 48.85, 2.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, ok := grid.Locate(tt.lat, tt.lon)
			assert.False(t, ok)
			assert.Nil(t, tile)
		})
	}
}

func TestLocateMidpointRoundTrip(t *testing.T) {
	grid := testGrid(t)

	for _, tile := range grid.Tiles() {
		center := tile.Center()
		located, ok := grid.Locate(center.LatDeg, center.LonDeg)
		require.True(t, ok, "tile %s center out of bounds", tile.ID)
		assert.Equal(t, tile.ID, located.ID)
	}
}

func TestLocateCornersClamp(t *testing.T) {
	grid := testGrid(t)
	latMin, latMax, lonMin, lonMax := grid.Bounds()

	tile, ok := grid.Locate(latMin, lonMin)
	require.True(t, ok)
	assert.Equal(t, 0, tile.X)
	assert.Equal(t, 0, tile.Y)

	// The exact upper boundary is in bounds and clamps into the last
	// tile instead of indexing past the grid.
	tile, ok = grid.Locate(latMax, lonMax)
	require.True(t, ok)
	assert.Equal(t, 9, tile.X)
	assert.Equal(t, 9, tile.Y)
}

func TestTileByID(t *testing.T) {
	grid := testGrid(t)

	tile, ok := grid.TileByID("tile_x2_y7")
	require.True(t, ok)
	assert.Equal(t, 2, tile.X)
	assert.Equal(t, 7, tile.Y)

	_, ok = grid.TileByID("tile_x99_y99")
	assert.False(t, ok)
}

func TestTilesOrder(t *testing.T) {
	grid := testGrid(t)
	tiles := grid.Tiles()

	assert.Equal(t, "tile_x0_y0", tiles[0].ID)
	assert.Equal(t, "tile_x0_y1", tiles[1].ID)
	assert.Equal(t, "tile_x1_y0", tiles[10].ID)
	assert.Equal(t, "tile_x9_y9", tiles[99].ID)
}

func TestTileContains(t *testing.T) {
	grid := testGrid(t)
	tile, ok := grid.TileByID(TileID(4, 4))
	require.True(t, ok)

	center := tile.Center()
	assert.True(t, tile.Contains(center.LatDeg, center.LonDeg))
	assert.True(t, tile.Contains(tile.LatMin, tile.LonMin))
	assert.True(t, tile.Contains(tile.LatMax, tile.LonMax))
	assert.False(t, tile.Contains(tile.LatMax+1e-6, center.LonDeg))
}

func TestTileIDFormat(t *testing.T) {
	for _, tc := range []struct{ x, y int }{{0, 0}, {3, 7}, {12, 4}} {
		assert.Equal(t, fmt.Sprintf("tile_x%d_y%d", tc.x, tc.y), TileID(tc.x, tc.y))
	}
}

func TestGridAccessors(t *testing.T) {
	grid := testGrid(t)

	assert.Equal(t, rf.LatLon{LatDeg: testCenterLat, LonDeg: testCenterLon}, grid.Center())
	assert.Equal(t, 100.0, grid.TileSizeMeters())
	assert.Equal(t, 1000.0, grid.ExtentMeters())
}

func BenchmarkLocate(b *testing.B) {
	grid, err := NewTileGrid(testCenterLat, testCenterLon, 100, 1000)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grid.Locate(testCenterLat+0.001, testCenterLon-0.002)
	}
}
