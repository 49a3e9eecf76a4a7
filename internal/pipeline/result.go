package pipeline

import (
	"time"

	"github.com/voxpipe/voxpipe/internal/transcribe"
)

// ChunkSummary describes one transcribed chunk in a completed result.
type ChunkSummary struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Duration  time.Duration
	Text      string
}

// Result is the tagged outcome of a pipeline run. Exactly one variant is
// valid at a time, selected by Success:
//
//   - Success true: Text, Segments, Language, Duration, WasChunked, Chunks.
//   - Success false: Error, FailedChunk, PartialText, Segments,
//     CompletedChunks, TotalChunks hold everything accumulated before the
//     failing chunk.
type Result struct {
	Success bool

	// Success variant.
	Text          string
	Segments      []transcribe.Segment
	Language      string
	Duration      time.Duration
	DurationKnown bool
	WasChunked    bool
	Chunks        []ChunkSummary

	// Partial-failure variant. Segments is shared between variants: on
	// failure it holds the segments of the completed chunks.
	Error           string
	FailedChunk     int
	PartialText     string
	CompletedChunks int
	TotalChunks     int
}
