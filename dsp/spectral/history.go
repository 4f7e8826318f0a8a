package spectral

import (
	"fmt"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// SpectrogramBuffer keeps the most recent PSD rows in a fixed-capacity ring,
// oldest evicted first. It gives waterfall-style consumers a bounded trailing
// view of the spectrum without the pipeline itself holding history.
//
// Rows are copied on the way in and on the way out, so callers may reuse
// their slices freely.
type SpectrogramBuffer struct {
	rows     [][]float64
	bins     int
	writePos int
	count    int
}

// NewSpectrogramBuffer creates a buffer holding up to capacity rows of the
// given bin count.
func NewSpectrogramBuffer(capacity, bins int) (*SpectrogramBuffer, error) {
	if capacity < 1 {
		return nil, rf.NewConfigError("spectrogram.rows",
			fmt.Sprintf("capacity must be at least 1: %d", capacity))
	}
	if bins < 1 {
		return nil, rf.NewConfigError("rf.fft_size",
			fmt.Sprintf("row width must be positive: %d", bins))
	}
	return &SpectrogramBuffer{
		rows: make([][]float64, capacity),
		bins: bins,
	}, nil
}

// Push copies one PSD row into the buffer, evicting the oldest when full.
func (b *SpectrogramBuffer) Push(psd []float64) error {
	if len(psd) != b.bins {
		return rf.NewShapeError("spectrogram row", b.bins, len(psd))
	}

	row := b.rows[b.writePos]
	if row == nil {
		row = make([]float64, b.bins)
		b.rows[b.writePos] = row
	}
	copy(row, psd)

	b.writePos = (b.writePos + 1) % len(b.rows)
	if b.count < len(b.rows) {
		b.count++
	}
	return nil
}

// Rows returns copies of the buffered rows ordered oldest to newest.
func (b *SpectrogramBuffer) Rows() [][]float64 {
	out := make([][]float64, 0, b.count)
	start := (b.writePos - b.count + len(b.rows)) % len(b.rows)
	for i := 0; i < b.count; i++ {
		src := b.rows[(start+i)%len(b.rows)]
		row := make([]float64, b.bins)
		copy(row, src)
		out = append(out, row)
	}
	return out
}

// Latest returns a copy of the newest row, or nil when the buffer is empty.
func (b *SpectrogramBuffer) Latest() []float64 {
	if b.count == 0 {
		return nil
	}
	last := (b.writePos - 1 + len(b.rows)) % len(b.rows)
	row := make([]float64, b.bins)
	copy(row, b.rows[last])
	return row
}

// Len returns the number of buffered rows.
func (b *SpectrogramBuffer) Len() int {
	return b.count
}

// Capacity returns the maximum number of rows the buffer holds.
func (b *SpectrogramBuffer) Capacity() int {
	return len(b.rows)
}

// Clear discards all buffered rows.
func (b *SpectrogramBuffer) Clear() {
	b.writePos = 0
	b.count = 0
}
