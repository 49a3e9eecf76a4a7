package chunk

import (
	"fmt"
	"time"
)

// Window is a half-open sample range [Start, End) within a decoded buffer.
type Window struct {
	Start int // inclusive sample index
	End   int // exclusive sample index
}

// Plan computes the ordered windows covering [0, totalSamples) exactly once:
// contiguous, non-overlapping, no gaps. Every window spans exactly
// floor(chunkDuration * sampleRate) samples except the last, which ends at
// totalSamples. Window starts are integer multiples of the chunk span, so
// repeated float addition can never drift the boundaries.
func Plan(totalSamples, sampleRate int, chunkDuration time.Duration) ([]Window, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("%w: chunk duration %v must be positive", ErrInvalidConfig, chunkDuration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidConfig, sampleRate)
	}
	if totalSamples <= 0 {
		return nil, fmt.Errorf("%w: no samples to plan", ErrInvalidConfig)
	}

	samplesPerChunk := int(int64(sampleRate) * chunkDuration.Nanoseconds() / int64(time.Second))
	if samplesPerChunk < 1 {
		return nil, fmt.Errorf("%w: chunk duration %v shorter than one sample at %d Hz",
			ErrInvalidConfig, chunkDuration, sampleRate)
	}

	if totalSamples <= samplesPerChunk {
		return []Window{{Start: 0, End: totalSamples}}, nil
	}

	count := (totalSamples + samplesPerChunk - 1) / samplesPerChunk
	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := i * samplesPerChunk
		end := min(start+samplesPerChunk, totalSamples)
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows, nil
}
