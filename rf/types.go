package rf

// Frame represents one block of complex baseband samples captured at a fixed
// center frequency and sample rate. Timestamps are nanoseconds since the Unix
// epoch and refer to the first sample of the block.
type Frame struct {
	ID           uint64       `json:"id"`
	TimestampNs  int64        `json:"timestamp_ns"`
	CenterFreqHz float64      `json:"center_freq_hz"`
	SampleRateHz float64      `json:"sample_rate_hz"`
	GainDB       *float64     `json:"gain_db,omitempty"`
	IQ           []complex128 `json:"-"`
}

// DurationNs returns the time span covered by the frame in nanoseconds.
func (f *Frame) DurationNs() int64 {
	if f.SampleRateHz <= 0 {
		return 0
	}
	return int64(float64(len(f.IQ)) / f.SampleRateHz * 1e9)
}

// PositionFix represents a single navigation fix. Latitude and longitude are
// WGS84 degrees; the optional fields are nil when the receiver did not report
// them.
type PositionFix struct {
	TimestampNs int64    `json:"timestamp_ns"`
	LatDeg      float64  `json:"lat_deg"`
	LonDeg      float64  `json:"lon_deg"`
	AltM        *float64 `json:"alt_m,omitempty"`
	SpeedMps    *float64 `json:"speed_mps,omitempty"`
	HeadingDeg  *float64 `json:"heading_deg,omitempty"`
}

// LatLon is a bare WGS84 coordinate pair.
type LatLon struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

// Band represents a named absolute frequency interval [StartHz, EndHz].
type Band struct {
	Name    string  `json:"name"`
	StartHz float64 `json:"start_hz"`
	EndHz   float64 `json:"end_hz"`
}

// WidthHz returns the band width in Hz.
func (b Band) WidthHz() float64 {
	return b.EndHz - b.StartHz
}

// Validate checks that the band interval is well formed.
func (b Band) Validate() error {
	if b.StartHz >= b.EndHz {
		return NewConfigError("band",
			"start frequency must be below end frequency")
	}
	return nil
}

// FeatureRecord represents the spectral features extracted from a single
// frame. The per-band slices are ordered exactly as the configured band list.
// Position is nil when no usable fix was available at process time, and
// AnomalyScore is nil unless a downstream detector attached one. Records are
// immutable once emitted.
type FeatureRecord struct {
	FrameID       uint64    `json:"frame_id"`
	TimestampNs   int64     `json:"timestamp_ns"`
	CenterFreqHz  float64   `json:"center_freq_hz"`
	SampleRateHz  float64   `json:"sample_rate_hz"`
	FreqBinsHz    []float64 `json:"freq_bins_hz"`
	PSDDB         []float64 `json:"psd_db"`
	PSDSmoothedDB []float64 `json:"psd_smoothed_db"`
	NoiseFloorDB  float64   `json:"noise_floor_db"`
	BandpowerDB   []float64 `json:"bandpower_db"`
	OccupancyPct  []float64 `json:"occupancy_pct"`
	Position      *LatLon   `json:"position,omitempty"`
	AnomalyScore  *float64  `json:"anomaly_score,omitempty"`
}

// HasPosition reports whether the record carries a navigation fix.
func (r *FeatureRecord) HasPosition() bool {
	return r.Position != nil
}
