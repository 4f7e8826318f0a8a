// Package timebase defines the time conventions shared across the pipeline:
// all timestamps are int64 nanoseconds since the Unix epoch, and frame/fix
// alignment is decided here.
package timebase

import "time"

// NowNs returns the current wall-clock time in nanoseconds since the Unix epoch.
func NowNs() int64 {
	return time.Now().UnixNano()
}

// SecToNs converts floating-point seconds to integer nanoseconds.
func SecToNs(sec float64) int64 {
	return int64(sec * 1e9)
}

// NsToSec converts integer nanoseconds to floating-point seconds.
func NsToSec(ns int64) float64 {
	return float64(ns) / 1e9
}

// NsToMs converts integer nanoseconds to floating-point milliseconds.
func NsToMs(ns int64) float64 {
	return float64(ns) / 1e6
}

// FormatTimestamp renders a nanosecond timestamp as UTC RFC3339 with
// millisecond precision, the form used in logs and summaries.
func FormatTimestamp(ns int64) string {
	return time.Unix(0, ns).UTC().Format("2006-01-02T15:04:05.000Z")
}
