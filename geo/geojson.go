package geo

import (
	"encoding/json"
	"fmt"
	"os"
)

// GeoJSONGeometry is a GeoJSON polygon geometry. Coordinates follow
// the GeoJSON axis order: [longitude, latitude].
type GeoJSONGeometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// GeoJSONFeature pairs a tile polygon with its summary statistics.
type GeoJSONFeature struct {
	Type       string            `json:"type"`
	Properties GeoJSONProperties `json:"properties"`
	Geometry   GeoJSONGeometry   `json:"geometry"`
}

// GeoJSONProperties carries the non-geometric fields of a TileSummary.
// The tile bounds live in the feature geometry instead.
type GeoJSONProperties struct {
	TileID           string    `json:"tile_id"`
	TileX            int       `json:"tile_x"`
	TileY            int       `json:"tile_y"`
	FrameCount       int       `json:"frame_count"`
	TimestampMinNs   int64     `json:"timestamp_min_ns"`
	TimestampMaxNs   int64     `json:"timestamp_max_ns"`
	BandpowerMeanDB  []float64 `json:"bandpower_mean_db"`
	BandpowerMaxDB   []float64 `json:"bandpower_max_db"`
	OccupancyMeanPct []float64 `json:"occupancy_mean_pct"`
	AnomalyScoreMax  *float64  `json:"anomaly_score_max,omitempty"`
}

// GeoJSONFeatureCollection is the top-level GeoJSON document.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// tilePolygon builds the closed exterior ring of a tile's bounds.
func tilePolygon(s *TileSummary) [][][]float64 {
	ring := [][]float64{
		{s.LonMin, s.LatMin},
		{s.LonMax, s.LatMin},
		{s.LonMax, s.LatMax},
		{s.LonMin, s.LatMax},
		{s.LonMin, s.LatMin},
	}
	return [][][]float64{ring}
}

// SummariesToGeoJSON converts tile summaries into a GeoJSON
// FeatureCollection with one polygon feature per tile.
func SummariesToGeoJSON(summaries []TileSummary) *GeoJSONFeatureCollection {
	features := make([]GeoJSONFeature, 0, len(summaries))
	for i := range summaries {
		s := &summaries[i]
		features = append(features, GeoJSONFeature{
			Type: "Feature",
			Properties: GeoJSONProperties{
				TileID:           s.TileID,
				TileX:            s.TileX,
				TileY:            s.TileY,
				FrameCount:       s.FrameCount,
				TimestampMinNs:   s.TimestampMinNs,
				TimestampMaxNs:   s.TimestampMaxNs,
				BandpowerMeanDB:  s.BandpowerMeanDB,
				BandpowerMaxDB:   s.BandpowerMaxDB,
				OccupancyMeanPct: s.OccupancyMeanPct,
				AnomalyScoreMax:  s.AnomalyScoreMax,
			},
			Geometry: GeoJSONGeometry{
				Type:        "Polygon",
				Coordinates: tilePolygon(s),
			},
		})
	}

	return &GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// WriteSummariesGeoJSON writes tile summaries to path as an indented
// GeoJSON FeatureCollection.
func WriteSummariesGeoJSON(path string, summaries []TileSummary) error {
	doc := SummariesToGeoJSON(summaries)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}
