// Package pipeline drives a transcription request end to end: classify the
// payload, split it into chunks when limits demand, transcribe each chunk
// strictly in order, shift chunk-local timestamps onto the source timeline,
// and merge everything into one result.
package pipeline

import (
	"context"
	"fmt"

	"github.com/voxpipe/voxpipe/internal/chunk"
	"github.com/voxpipe/voxpipe/internal/probe"
	"github.com/voxpipe/voxpipe/internal/transcribe"
	"github.com/voxpipe/voxpipe/internal/wav"
)

// Orchestrator runs transcription requests. Each request owns its buffers
// and chunk sequence exclusively; a single Orchestrator may serve
// concurrent requests without locking.
type Orchestrator struct {
	client transcribe.Transcriber
	limits chunk.Limits
	prober probe.Prober
	sink   Sink
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProber sets the duration probe used during classification.
// Default: WAV header probing.
func WithProber(p probe.Prober) Option {
	return func(o *Orchestrator) {
		o.prober = p
	}
}

// WithProgress sets the progress notification sink.
func WithProgress(s Sink) Option {
	return func(o *Orchestrator) {
		o.sink = s
	}
}

// New creates an Orchestrator transcribing through the given client under
// the given limits.
func New(client transcribe.Transcriber, limits chunk.Limits, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		limits: limits,
		prober: probe.WAVProber{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// emit delivers a progress notification. One-way: the sink cannot affect
// control flow.
func (o *Orchestrator) emit(p Progress) {
	if o.sink != nil {
		o.sink(p)
	}
}

// Run transcribes one payload.
//
// Errors are returned only for fatal conditions before any transcription
// work: unparseable audio or invalid chunking configuration. Once a chunk
// has been attempted, failures downgrade to a partial-failure Result
// carrying everything accumulated so far.
func (o *Orchestrator) Run(ctx context.Context, payload []byte, opts transcribe.Options) (*Result, error) {
	o.emit(Progress{Status: StatusAnalyzing, Message: "analyzing audio"})

	decision, err := chunk.Classify(ctx, payload, o.limits, o.prober)
	if err != nil {
		return nil, err
	}

	if !decision.NeedsChunking {
		return o.runSingle(ctx, payload, opts, decision)
	}
	return o.runChunked(ctx, payload, opts, decision)
}

// runSingle transcribes the payload in one call with no chunking overhead.
func (o *Orchestrator) runSingle(ctx context.Context, payload []byte, opts transcribe.Options, decision chunk.Decision) (*Result, error) {
	o.emit(Progress{
		Status:      StatusTranscribing,
		Message:     "transcribing in a single call",
		TotalChunks: 1,
	})

	res, err := o.client.Transcribe(ctx, payload, opts)
	if err != nil {
		o.emit(Progress{Status: StatusPartiallyFailed, Message: err.Error(), TotalChunks: 1})
		return &Result{
			Success:     false,
			Error:       err.Error(),
			TotalChunks: 1,
		}, nil
	}

	o.emit(Progress{
		Status:      StatusCompleted,
		Message:     "transcription complete",
		ChunkIndex:  1,
		TotalChunks: 1,
		Fraction:    1,
	})

	out := &Result{
		Success:       true,
		Text:          res.Text,
		Segments:      res.Segments,
		Language:      res.Language,
		Duration:      res.Duration,
		DurationKnown: res.DurationKnown,
		WasChunked:    false,
	}
	if !out.DurationKnown && decision.DurationKnown {
		out.Duration = decision.Duration
		out.DurationKnown = true
	}
	return out, nil
}

// runChunked splits the payload and transcribes chunk by chunk, strictly
// in order: output text and merged segments depend on sequential
// completion.
func (o *Orchestrator) runChunked(ctx context.Context, payload []byte, opts transcribe.Options, decision chunk.Decision) (*Result, error) {
	buf, err := wav.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("cannot split audio for chunked transcription: %w", err)
	}

	o.emit(Progress{
		Status:      StatusChunking,
		Message:     fmt.Sprintf("splitting audio: %s (~%d chunks)", decision.Reason, decision.EstimatedChunks),
		TotalChunks: decision.EstimatedChunks,
	})

	plan, err := chunk.Plan(buf.NumSamples(), buf.SampleRate, o.limits.ChunkDuration)
	if err != nil {
		return nil, err
	}
	chunks, err := chunk.Extract(buf, plan, payload)
	if err != nil {
		return nil, err
	}
	total := len(chunks)

	o.emit(Progress{
		Status:      StatusTranscribing,
		Message:     fmt.Sprintf("transcribing %d chunks", total),
		TotalChunks: total,
	})

	var (
		text      string
		segments  []transcribe.Segment
		summaries []ChunkSummary
		language  string
	)

	partial := func(failed int, cause error) *Result {
		o.emit(Progress{
			Status:      StatusPartiallyFailed,
			Message:     fmt.Sprintf("chunk %d failed: %v", failed, cause),
			ChunkIndex:  failed + 1,
			TotalChunks: total,
			Fraction:    float64(failed) / float64(total),
		})
		return &Result{
			Success:         false,
			Error:           cause.Error(),
			FailedChunk:     failed,
			PartialText:     text,
			Segments:        segments,
			CompletedChunks: failed,
			TotalChunks:     total,
		}
	}

	for i, c := range chunks {
		// Cancellation aborts between chunks, never mid-call; accumulated
		// state stays valid and returnable.
		if err := ctx.Err(); err != nil {
			return partial(i, err), nil
		}

		res, err := o.client.Transcribe(ctx, c.Payload, opts)
		if err != nil {
			// Abort immediately: remaining chunks are not attempted.
			return partial(i, err), nil
		}

		segments = append(segments, transcribe.Shift(res.Segments, c.StartTime)...)
		if res.Text != "" {
			if text != "" {
				text += " "
			}
			text += res.Text
		}
		if language == "" {
			language = res.Language
		}
		summaries = append(summaries, ChunkSummary{
			Index:     c.Index,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Duration:  c.Duration(),
			Text:      res.Text,
		})

		o.emit(Progress{
			Status:      StatusTranscribing,
			Message:     fmt.Sprintf("transcribed chunk %d/%d", i+1, total),
			ChunkIndex:  i + 1,
			TotalChunks: total,
			Fraction:    float64(i+1) / float64(total),
		})
	}

	o.emit(Progress{
		Status:      StatusReconciling,
		Message:     "assembling transcript",
		TotalChunks: total,
		Fraction:    1,
	})

	out := &Result{
		Success:       true,
		Text:          text,
		Segments:      segments,
		Language:      language,
		Duration:      chunks[total-1].EndTime,
		DurationKnown: true,
		WasChunked:    true,
		Chunks:        summaries,
	}

	o.emit(Progress{
		Status:      StatusCompleted,
		Message:     "transcription complete",
		ChunkIndex:  total,
		TotalChunks: total,
		Fraction:    1,
	})
	return out, nil
}
