package chunk

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/voxpipe/voxpipe/internal/wav"
)

// Extract copies each planned window into its own buffer, encodes it, and
// records the window's position in the source timeline.
//
// When the plan is a single window covering the whole buffer and the
// caller supplies the original payload, that payload is passed through
// unmodified instead of being re-encoded; the descriptor's start and end
// times are populated either way.
func Extract(buf *wav.Buffer, plan []Window, original []byte) ([]Chunk, error) {
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidConfig)
	}

	if len(plan) == 1 && original != nil {
		w := plan[0]
		return []Chunk{{
			Index:     0,
			StartTime: sampleTime(w.Start, buf.SampleRate),
			EndTime:   sampleTime(w.End, buf.SampleRate),
			Payload:   original,
		}}, nil
	}

	chunks := make([]Chunk, 0, len(plan))
	for i, w := range plan {
		sub := &wav.Buffer{
			SampleRate: buf.SampleRate,
			Channels:   make([][]float64, len(buf.Channels)),
		}

		// Channel copies are independent; run them in parallel when there
		// is more than one channel. Output ordering is unaffected.
		if len(buf.Channels) > 1 {
			var g errgroup.Group
			for ch := range buf.Channels {
				ch := ch
				g.Go(func() error {
					sub.Channels[ch] = copyRange(buf.Channels[ch], w)
					return nil
				})
			}
			_ = g.Wait() // copyRange never fails
		} else {
			sub.Channels[0] = copyRange(buf.Channels[0], w)
		}

		payload, err := wav.Encode(sub)
		if err != nil {
			return nil, fmt.Errorf("encode window %d [%d,%d): %w", i, w.Start, w.End, err)
		}

		chunks = append(chunks, Chunk{
			Index:     i,
			StartTime: sampleTime(w.Start, buf.SampleRate),
			EndTime:   sampleTime(w.End, buf.SampleRate),
			Payload:   payload,
		})
	}

	return chunks, nil
}

// copyRange returns a fresh copy of samples[w.Start:w.End], clamped to the
// channel's length.
func copyRange(samples []float64, w Window) []float64 {
	start := min(w.Start, len(samples))
	end := min(w.End, len(samples))
	out := make([]float64, end-start)
	copy(out, samples[start:end])
	return out
}
