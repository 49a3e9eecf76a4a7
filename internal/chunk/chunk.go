// Package chunk plans, extracts, and classifies bounded-duration slices of
// an audio file for independent transcription.
package chunk

import (
	"errors"
	"fmt"
	"time"

	"github.com/voxpipe/voxpipe/internal/format"
)

// ErrInvalidConfig indicates a non-positive chunking parameter.
// This is a programmer error, not a runtime condition.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Chunk is a self-contained audio segment carrying its own position in the
// original file's timeline. Payload is consumed exactly once by the
// transcription client.
type Chunk struct {
	Index     int           // zero-based position in the sequence
	StartTime time.Duration // start in the source timeline
	EndTime   time.Duration // end in the source timeline, > StartTime
	Payload   []byte        // encoded audio bytes
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Timestamp(c.StartTime),
		format.Timestamp(c.EndTime))
}

// sampleTime converts a sample index to its position in time. Integer
// arithmetic keeps adjacent window boundaries exactly equal.
func sampleTime(sample, sampleRate int) time.Duration {
	return time.Duration(int64(sample) * int64(time.Second) / int64(sampleRate))
}
