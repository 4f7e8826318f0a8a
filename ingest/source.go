// Package ingest provides the frame and fix producers feeding the DSP
// pipeline. The pipeline itself only depends on the FrameSource and
// FixSource interfaces, never on a concrete variant, so synthetic and
// hardware producers are interchangeable at construction time.
package ingest

import (
	"context"
	"errors"

	"github.com/Pouria-007/RF-Spectrum-Observatory/rf"
)

// ErrNotStarted is returned when a source is polled before Start or
// after Stop.
var ErrNotStarted = errors.New("source not started")

// FrameSource produces IQ frames. Next blocks at most until the
// context is done; an exhausted source returns io.EOF. Sources are
// not safe for concurrent use.
type FrameSource interface {
	Start() error
	Stop() error
	Next(ctx context.Context) (*rf.Frame, error)
}

// FixSource produces position fixes without blocking. Poll reports
// false when no fix is available, which callers treat as a plain
// no-fix-yet condition rather than an error.
type FixSource interface {
	Start() error
	Stop() error
	Poll(nowNs int64) (rf.PositionFix, bool)
}
