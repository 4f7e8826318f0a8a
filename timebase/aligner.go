package timebase

import (
	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// AlignmentPolicy selects how a frame timestamp is matched against buffered fixes.
type AlignmentPolicy string

const (
	// PolicyNearest matches the fix with the smallest absolute time offset
	// from the frame and rejects matches beyond the configured tolerance.
	PolicyNearest AlignmentPolicy = "nearest"
	// PolicyLatest always matches the most recently added fix, regardless of offset.
	PolicyLatest AlignmentPolicy = "latest"
)

// Default aligner parameters.
const (
	DefaultFixCapacity = 100
	DefaultToleranceNs = int64(1_000_000_000)
)

// PositionAligner buffers recent navigation fixes in a fixed-capacity ring and
// matches frame timestamps against them. Fix producers and frame producers run
// on independent clocks with different rates, so the aligner never assumes a
// fix exists for a frame; a miss is an expected outcome, not an error.
//
// The aligner is not safe for concurrent use. The pipeline serializes access.
type PositionAligner struct {
	fixes    []rf.PositionFix
	writePos int
	count    int
	policy   AlignmentPolicy
	tolNs    int64
}

// NewPositionAligner creates an aligner with the default capacity, the
// nearest-match policy, and a one second tolerance.
func NewPositionAligner() *PositionAligner {
	aligner, _ := NewPositionAlignerWithConfig(DefaultFixCapacity, PolicyNearest, DefaultToleranceNs)
	return aligner
}

// NewPositionAlignerWithConfig creates an aligner with explicit parameters.
// The tolerance only applies to PolicyNearest.
func NewPositionAlignerWithConfig(capacity int, policy AlignmentPolicy, toleranceNs int64) (*PositionAligner, error) {
	if capacity < 1 {
		return nil, rf.NewConfigError("align.buffer_size", "capacity must be at least 1")
	}
	switch policy {
	case PolicyNearest, PolicyLatest:
	default:
		return nil, rf.NewConfigError("align.policy", "unknown alignment policy: "+string(policy))
	}
	if policy == PolicyNearest && toleranceNs <= 0 {
		return nil, rf.NewConfigError("align.tolerance", "tolerance must be positive")
	}
	return &PositionAligner{
		fixes:  make([]rf.PositionFix, capacity),
		policy: policy,
		tolNs:  toleranceNs,
	}, nil
}

// AddFix inserts a fix, evicting the oldest when the ring is full.
func (a *PositionAligner) AddFix(fix rf.PositionFix) {
	a.fixes[a.writePos] = fix
	a.writePos = (a.writePos + 1) % len(a.fixes)
	if a.count < len(a.fixes) {
		a.count++
	}
}

// Match returns the fix selected by the configured policy for the given frame
// timestamp. The second return value is false when the buffer is empty or,
// under PolicyNearest, when the closest fix is further away than the tolerance.
func (a *PositionAligner) Match(timestampNs int64) (rf.PositionFix, bool) {
	if a.count == 0 {
		return rf.PositionFix{}, false
	}

	if a.policy == PolicyLatest {
		last := (a.writePos - 1 + len(a.fixes)) % len(a.fixes)
		return a.fixes[last], true
	}

	start := (a.writePos - a.count + len(a.fixes)) % len(a.fixes)
	best := -1
	var bestDelta int64
	for i := 0; i < a.count; i++ {
		idx := (start + i) % len(a.fixes)
		delta := a.fixes[idx].TimestampNs - timestampNs
		if delta < 0 {
			delta = -delta
		}
		if best < 0 || delta < bestDelta {
			best = idx
			bestDelta = delta
		}
	}

	if bestDelta > a.tolNs {
		return rf.PositionFix{}, false
	}
	return a.fixes[best], true
}

// Len returns the number of buffered fixes.
func (a *PositionAligner) Len() int {
	return a.count
}

// Policy returns the configured alignment policy.
func (a *PositionAligner) Policy() AlignmentPolicy {
	return a.policy
}

// Reset discards all buffered fixes.
func (a *PositionAligner) Reset() {
	a.writePos = 0
	a.count = 0
}
