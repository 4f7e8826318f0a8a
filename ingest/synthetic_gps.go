package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/Pouria-007/RF-Spectrum-Observatory/geo"
	"github.com/Pouria-007/RF-Spectrum-Observatory/logging"
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// earthRadiusM is the mean Earth radius used by the haversine
// distance.
const earthRadiusM = 6371000.0

// Waypoint is one route vertex. TSec orders the route; playback speed
// comes from the source configuration, not from waypoint times.
type Waypoint struct {
	TSec   float64
	LatDeg float64
	LonDeg float64
}

// LoadRouteCSV reads a route from a CSV file with header columns
// t_sec, lat_deg, lon_deg (extra columns are ignored). Waypoints are
// returned sorted by time.
func LoadRouteCSV(path string) ([]Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open route: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read route header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"t_sec", "lat_deg", "lon_deg"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("route CSV missing column %q", required)
		}
	}

	var waypoints []Waypoint
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read route row: %w", err)
		}

		wp := Waypoint{}
		for name, dst := range map[string]*float64{
			"t_sec":   &wp.TSec,
			"lat_deg": &wp.LatDeg,
			"lon_deg": &wp.LonDeg,
		} {
			v, err := strconv.ParseFloat(row[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("route line %d: bad %s: %w", line, name, err)
			}
			*dst = v
		}
		waypoints = append(waypoints, wp)
	}

	sort.Slice(waypoints, func(i, j int) bool {
		return waypoints[i].TSec < waypoints[j].TSec
	})
	return waypoints, nil
}

// CircleRoute generates a closed circular route around a center point
// with numWaypoints distinct vertices. The final waypoint repeats the
// first, so looping playback rejoins the start through an ordinary
// segment. Waypoint times assume travel at speedMps along the arc.
func CircleRoute(centerLat, centerLon, radiusMeters float64, numWaypoints int, speedMps float64) []Waypoint {
	latDegPerM, lonDegPerM := geo.DegreesPerMeter(centerLat)
	arcStepM := 2 * math.Pi * radiusMeters / float64(numWaypoints)

	waypoints := make([]Waypoint, numWaypoints+1)
	for i := 0; i < numWaypoints; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numWaypoints)
		waypoints[i] = Waypoint{
			TSec:   float64(i) * arcStepM / speedMps,
			LatDeg: centerLat + radiusMeters*math.Sin(angle)*latDegPerM,
			LonDeg: centerLon + radiusMeters*math.Cos(angle)*lonDegPerM,
		}
	}
	waypoints[numWaypoints] = Waypoint{
		TSec:   float64(numWaypoints) * arcStepM / speedMps,
		LatDeg: waypoints[0].LatDeg,
		LonDeg: waypoints[0].LonDeg,
	}
	return waypoints
}

// RouteFixSource replays a waypoint route as position fixes,
// interpolating linearly between waypoints at a constant ground speed.
// Fix pacing follows the configured update rate: each Poll advances
// route progress by one update interval.
type RouteFixSource struct {
	waypoints    []Waypoint
	updateRateHz float64
	speedMps     float64
	loop         bool

	running  bool
	idx      int
	progress float64

	logger logging.Logger
}

// NewRouteFixSource validates the route and playback parameters.
func NewRouteFixSource(waypoints []Waypoint, updateRateHz, speedMps float64, loop bool) (*RouteFixSource, error) {
	if len(waypoints) < 2 {
		return nil, rf.NewConfigError("synthetic.gps.route",
			"route needs at least two waypoints")
	}
	if updateRateHz <= 0 {
		return nil, rf.NewConfigError("synthetic.gps.update_rate_hz",
			"update rate must be positive")
	}
	if speedMps <= 0 {
		return nil, rf.NewConfigError("synthetic.gps.speed_mps",
			"speed must be positive")
	}

	return &RouteFixSource{
		waypoints:    waypoints,
		updateRateHz: updateRateHz,
		speedMps:     speedMps,
		loop:         loop,
		logger: logging.WithFields(logging.Fields{
			"component": "route_fix_source",
			"waypoints": len(waypoints),
		}),
	}, nil
}

// NewRouteFixSourceFromCSV loads the route file and builds the source.
func NewRouteFixSourceFromCSV(path string, updateRateHz, speedMps float64, loop bool) (*RouteFixSource, error) {
	waypoints, err := LoadRouteCSV(path)
	if err != nil {
		return nil, err
	}
	return NewRouteFixSource(waypoints, updateRateHz, speedMps, loop)
}

// Start rewinds the route and arms the source.
func (s *RouteFixSource) Start() error {
	s.running = true
	s.idx = 0
	s.progress = 0
	s.logger.Debug("route playback started", logging.Fields{
		"speed_mps":      s.speedMps,
		"update_rate_hz": s.updateRateHz,
		"loop":           s.loop,
	})
	return nil
}

// Stop disarms the source.
func (s *RouteFixSource) Stop() error {
	s.running = false
	return nil
}

// Poll returns the current interpolated fix stamped with nowNs, then
// advances route progress by one update interval. It reports false
// once a non-looping route is exhausted or when the source is not
// running.
func (s *RouteFixSource) Poll(nowNs int64) (rf.PositionFix, bool) {
	if !s.running {
		return rf.PositionFix{}, false
	}

	if s.idx >= len(s.waypoints)-1 {
		if !s.loop {
			return rf.PositionFix{}, false
		}
		s.idx = 0
		s.progress = 0
	}

	curr := s.waypoints[s.idx]
	next := s.waypoints[s.idx+1]

	alpha := s.progress
	heading := bearingDeg(curr.LatDeg, curr.LonDeg, next.LatDeg, next.LonDeg)
	speed := s.speedMps

	fix := rf.PositionFix{
		TimestampNs: nowNs,
		LatDeg:      curr.LatDeg*(1-alpha) + next.LatDeg*alpha,
		LonDeg:      curr.LonDeg*(1-alpha) + next.LonDeg*alpha,
		HeadingDeg:  &heading,
		SpeedMps:    &speed,
	}

	// A zero-length segment would stall progress forever, so skip it
	// on the next poll instead.
	segmentSec := haversineM(curr.LatDeg, curr.LonDeg, next.LatDeg, next.LonDeg) / s.speedMps
	if segmentSec > 0 {
		s.progress += 1 / s.updateRateHz / segmentSec
	} else {
		s.progress = 1
	}
	if s.progress >= 1 {
		s.idx++
		s.progress = 0
	}

	return fix, true
}

// haversineM computes the great-circle distance between two points in
// meters.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// bearingDeg computes the initial bearing from point 1 to point 2 in
// degrees, 0 = north, 90 = east.
func bearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	x := math.Sin(dLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	deg := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
