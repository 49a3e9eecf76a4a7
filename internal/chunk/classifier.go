package chunk

import (
	"context"
	"fmt"
	"time"

	"github.com/voxpipe/voxpipe/internal/format"
	"github.com/voxpipe/voxpipe/internal/probe"
)

// Limits bounds what may be uploaded in a single transcription call.
// Values are supplied explicitly at call time; there is no package-level
// default hiding inside the decision logic.
type Limits struct {
	MaxUploadBytes int64         // payloads over this size must be split
	MaxDuration    time.Duration // payloads over this duration must be split
	ChunkDuration  time.Duration // target duration per extracted chunk
}

// validate reports a programmer error in the limit values.
func (l Limits) validate() error {
	if l.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max upload size %d must be positive", ErrInvalidConfig, l.MaxUploadBytes)
	}
	if l.MaxDuration <= 0 {
		return fmt.Errorf("%w: max duration %v must be positive", ErrInvalidConfig, l.MaxDuration)
	}
	if l.ChunkDuration <= 0 {
		return fmt.Errorf("%w: chunk duration %v must be positive", ErrInvalidConfig, l.ChunkDuration)
	}
	return nil
}

// Decision is the outcome of classifying a payload against Limits.
type Decision struct {
	NeedsChunking   bool
	Reason          string        // cites the exceeded limit; empty when no chunking
	EstimatedChunks int           // >= 1
	Duration        time.Duration // probed duration, valid when DurationKnown
	DurationKnown   bool
}

// Classify decides whether a payload must be split before transcription.
//
// Size is checked first; a payload over MaxUploadBytes always needs
// chunking. Otherwise, if the duration can be probed and exceeds
// MaxDuration, chunking is needed. A failed probe is not fatal: the
// decision degrades to size-only and the chunk estimate is derived from
// the payload size.
func Classify(ctx context.Context, payload []byte, limits Limits, p probe.Prober) (Decision, error) {
	if err := limits.validate(); err != nil {
		return Decision{}, err
	}

	size := int64(len(payload))

	var d Decision
	if p != nil {
		if dur, err := p.Duration(ctx, payload); err == nil {
			d.Duration = dur
			d.DurationKnown = true
		}
	}

	switch {
	case size > limits.MaxUploadBytes:
		d.NeedsChunking = true
		d.Reason = fmt.Sprintf("file size %s exceeds %s limit",
			format.Size(size), format.Size(limits.MaxUploadBytes))
	case d.DurationKnown && d.Duration > limits.MaxDuration:
		d.NeedsChunking = true
		d.Reason = fmt.Sprintf("duration %s exceeds %s limit",
			format.Timestamp(d.Duration), format.Timestamp(limits.MaxDuration))
	}

	d.EstimatedChunks = estimateChunks(d, size, limits)
	return d, nil
}

// estimateChunks predicts how many chunks extraction will produce.
// With a known duration this is exact up to rounding; otherwise it is a
// coarse size-based guess.
func estimateChunks(d Decision, size int64, limits Limits) int {
	if !d.NeedsChunking {
		return 1
	}
	if d.DurationKnown {
		n := int((d.Duration + limits.ChunkDuration - 1) / limits.ChunkDuration)
		return max(n, 1)
	}
	n := int((size + limits.MaxUploadBytes - 1) / limits.MaxUploadBytes)
	return max(n, 1)
}
