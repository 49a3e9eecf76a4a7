// Package transcribe sends audio payloads to the transcription proxy and
// normalizes its responses into text plus time-aligned segments.
package transcribe

import (
	"context"
	"time"
)

// Segment is a provider-returned span of text with timestamps. Raw
// segments are local to the uploaded payload (zero-based); reconciled
// segments sit on the original file's timeline.
type Segment struct {
	ID    int           `json:"id"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result holds a normalized transcription outcome for one payload.
type Result struct {
	Text          string
	Segments      []Segment
	Language      string
	Duration      time.Duration
	DurationKnown bool
}

// Options configures a transcription call.
type Options struct {
	// Language is an ISO 639-1 code, or empty/"auto" for detection.
	Language string

	// Timestamps requests the verbose response format with per-segment
	// timing, at minor additional payload cost.
	Timestamps bool
}

// Transcriber converts one audio payload to text.
type Transcriber interface {
	Transcribe(ctx context.Context, payload []byte, opts Options) (*Result, error)
}

// Shift returns segments with start and end increased by offset, placing
// chunk-local timestamps onto the original file's timeline. Applied only
// for positive offsets; otherwise the input is returned as-is. The input
// slice is never mutated and order is preserved.
func Shift(segments []Segment, offset time.Duration) []Segment {
	if offset <= 0 || len(segments) == 0 {
		return segments
	}
	shifted := make([]Segment, len(segments))
	for i, s := range segments {
		s.Start += offset
		s.End += offset
		shifted[i] = s
	}
	return shifted
}
