// Package geo provides the deterministic spatial tile grid and the
// windowed aggregation of feature records into per-tile statistics.
//
// Meter-to-degree conversion uses a small-area approximation (1 deg
// latitude ~ 111 km, 1 deg longitude ~ 88 km times the cosine of the
// center latitude). It is only valid for grids spanning kilometers,
// not hundreds of kilometers.
package geo

import (
	"fmt"
	"math"

	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// latDegPerMeter is the inverse of the meridian arc length of one
// degree of latitude under the small-area approximation.
const latDegPerMeter = 1.0 / 111000.0

// indexEpsilon absorbs round-off when a coordinate sits exactly on a
// tile boundary, so the boundary line belongs to the upper tile. One
// billionth of a tile is sub-micrometer at any practical tile size.
const indexEpsilon = 1e-9

// DegreesPerMeter returns the meter-to-degree conversion factors of
// the small-area approximation at the given latitude.
func DegreesPerMeter(latDeg float64) (latDegPerM, lonDegPerM float64) {
	return latDegPerMeter, 1.0 / (88000.0 * math.Cos(latDeg*math.Pi/180))
}

// Tile is one rectangular cell of a TileGrid. Bounds are WGS84
// degrees. Tiles are created by the grid and never mutated.
type Tile struct {
	ID     string  `json:"id" yaml:"id"`
	X      int     `json:"x" yaml:"x"`
	Y      int     `json:"y" yaml:"y"`
	LatMin float64 `json:"lat_min" yaml:"lat_min"`
	LatMax float64 `json:"lat_max" yaml:"lat_max"`
	LonMin float64 `json:"lon_min" yaml:"lon_min"`
	LonMax float64 `json:"lon_max" yaml:"lon_max"`
}

// Contains reports whether the point lies within the tile bounds,
// inclusive on all edges.
func (t *Tile) Contains(latDeg, lonDeg float64) bool {
	return t.LatMin <= latDeg && latDeg <= t.LatMax &&
		t.LonMin <= lonDeg && lonDeg <= t.LonMax
}

// Center returns the midpoint of the tile bounds.
func (t *Tile) Center() rf.LatLon {
	return rf.LatLon{
		LatDeg: (t.LatMin + t.LatMax) / 2,
		LonDeg: (t.LonMin + t.LonMax) / 2,
	}
}

// TileID returns the deterministic identifier for grid indices (x, y).
func TileID(x, y int) string {
	return fmt.Sprintf("tile_x%d_y%d", x, y)
}

// TileGrid maps geographic coordinates to square tiles laid out around
// a center point. The full tile set is generated eagerly at
// construction and the grid is immutable afterward, so lookups are
// safe for concurrent readers.
type TileGrid struct {
	centerLat float64
	centerLon float64
	tileSizeM float64
	extentM   float64

	latDegPerM float64
	lonDegPerM float64

	latMin float64
	latMax float64
	lonMin float64
	lonMax float64

	tileSizeLatDeg float64
	tileSizeLonDeg float64

	numTilesX int
	numTilesY int

	tiles []*Tile
	byID  map[string]*Tile
}

// NewTileGrid builds the grid for a square area of extentMeters per
// side centered on (centerLat, centerLon), cut into square tiles of
// tileSizeMeters per side. The tile count per axis is
// ceil(extent / tile size), so the last row and column may extend past
// the nominal extent.
func NewTileGrid(centerLat, centerLon, tileSizeMeters, extentMeters float64) (*TileGrid, error) {
	if tileSizeMeters <= 0 {
		return nil, rf.NewConfigError("geo.tile_size_meters",
			"tile size must be positive")
	}
	if extentMeters <= 0 {
		return nil, rf.NewConfigError("geo.grid_extent_meters",
			"grid extent must be positive")
	}

	latDegPerM, lonDegPerM := DegreesPerMeter(centerLat)
	g := &TileGrid{
		centerLat:  centerLat,
		centerLon:  centerLon,
		tileSizeM:  tileSizeMeters,
		extentM:    extentMeters,
		latDegPerM: latDegPerM,
		lonDegPerM: lonDegPerM,
	}

	halfLat := extentMeters / 2 * g.latDegPerM
	halfLon := extentMeters / 2 * g.lonDegPerM
	g.latMin = centerLat - halfLat
	g.latMax = centerLat + halfLat
	g.lonMin = centerLon - halfLon
	g.lonMax = centerLon + halfLon

	g.tileSizeLatDeg = tileSizeMeters * g.latDegPerM
	g.tileSizeLonDeg = tileSizeMeters * g.lonDegPerM

	g.numTilesX = int(math.Ceil(extentMeters / tileSizeMeters))
	g.numTilesY = int(math.Ceil(extentMeters / tileSizeMeters))

	g.tiles = make([]*Tile, 0, g.numTilesX*g.numTilesY)
	g.byID = make(map[string]*Tile, g.numTilesX*g.numTilesY)
	for ix := 0; ix < g.numTilesX; ix++ {
		for iy := 0; iy < g.numTilesY; iy++ {
			lonMin := g.lonMin + float64(ix)*g.tileSizeLonDeg
			latMin := g.latMin + float64(iy)*g.tileSizeLatDeg
			tile := &Tile{
				ID:     TileID(ix, iy),
				X:      ix,
				Y:      iy,
				LatMin: latMin,
				LatMax: latMin + g.tileSizeLatDeg,
				LonMin: lonMin,
				LonMax: lonMin + g.tileSizeLonDeg,
			}
			g.tiles = append(g.tiles, tile)
			g.byID[tile.ID] = tile
		}
	}

	logging.Debug("tile grid generated", logging.Fields{
		"component":   "tile_grid",
		"center_lat":  centerLat,
		"center_lon":  centerLon,
		"tiles_x":     g.numTilesX,
		"tiles_y":     g.numTilesY,
		"tile_size_m": tileSizeMeters,
		"extent_m":    extentMeters,
	})

	return g, nil
}

// Locate returns the tile containing the point, or false if the point
// falls outside the grid bounds. Bounds are inclusive on every edge;
// indices at the exact upper boundary clamp into the last tile.
func (g *TileGrid) Locate(latDeg, lonDeg float64) (*Tile, bool) {
	if latDeg < g.latMin || latDeg > g.latMax ||
		lonDeg < g.lonMin || lonDeg > g.lonMax {
		return nil, false
	}

	ix := int(math.Floor((lonDeg-g.lonMin)/g.tileSizeLonDeg + indexEpsilon))
	iy := int(math.Floor((latDeg-g.latMin)/g.tileSizeLatDeg + indexEpsilon))

	if ix < 0 {
		ix = 0
	} else if ix > g.numTilesX-1 {
		ix = g.numTilesX - 1
	}
	if iy < 0 {
		iy = 0
	} else if iy > g.numTilesY-1 {
		iy = g.numTilesY - 1
	}

	return g.byID[TileID(ix, iy)], true
}

// TileByID returns the tile with the given identifier.
func (g *TileGrid) TileByID(id string) (*Tile, bool) {
	tile, ok := g.byID[id]
	return tile, ok
}

// Tiles returns the full tile set in x-major order. Callers must not
// mutate the returned tiles.
func (g *TileGrid) Tiles() []*Tile {
	out := make([]*Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// NumTilesX returns the tile count along the longitude axis.
func (g *TileGrid) NumTilesX() int {
	return g.numTilesX
}

// NumTilesY returns the tile count along the latitude axis.
func (g *TileGrid) NumTilesY() int {
	return g.numTilesY
}

// Center returns the configured grid center.
func (g *TileGrid) Center() rf.LatLon {
	return rf.LatLon{LatDeg: g.centerLat, LonDeg: g.centerLon}
}

// Bounds returns the geographic extent of the grid.
func (g *TileGrid) Bounds() (latMin, latMax, lonMin, lonMax float64) {
	return g.latMin, g.latMax, g.lonMin, g.lonMax
}

// TileSizeMeters returns the configured tile side length.
func (g *TileGrid) TileSizeMeters() float64 {
	return g.tileSizeM
}

// ExtentMeters returns the configured grid extent per side.
func (g *TileGrid) ExtentMeters() float64 {
	return g.extentM
}
