package timebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversionsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(1_500_000_000), SecToNs(1.5))
	assert.InDelta(t, 1.5, NsToSec(1_500_000_000), 1e-12)
	assert.InDelta(t, 1500.0, NsToMs(1_500_000_000), 1e-9)
}

func TestFormatTimestamp(t *testing.T) {
	// 2021-01-01T00:00:00Z plus 123ms
	ns := int64(1609459200)*1_000_000_000 + 123_000_000
	assert.Equal(t, "2021-01-01T00:00:00.123Z", FormatTimestamp(ns))
}

func TestNowNsMonotonicEnough(t *testing.T) {
	a := NowNs()
	b := NowNs()
	assert.LessOrEqual(t, a, b)
}
