// Package probe provides best-effort audio duration detection. A failed
// probe is recoverable: callers fall back to size-only decisions.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gowav "github.com/go-audio/wav"
)

// ErrProbe indicates the duration could not be determined.
var ErrProbe = errors.New("could not determine audio duration")

// Prober reports the playback duration of an audio payload.
// Implementations must treat failure as recoverable and wrap ErrProbe.
type Prober interface {
	Duration(ctx context.Context, data []byte) (time.Duration, error)
}

// Compile-time interface implementation checks.
var (
	_ Prober = (*WAVProber)(nil)
	_ Prober = (*FFmpegProber)(nil)
)

// WAVProber reads the duration from a WAV header without decoding samples.
type WAVProber struct{}

// Duration returns the payload's duration, or a wrapped ErrProbe if the
// payload is not a readable WAV stream.
//
// Duration is computed from the data chunk length, not the RIFF chunk
// size: the latter includes header bytes and would overstate the duration
// of every file, pushing payloads at exactly the duration limit over it.
func (WAVProber) Duration(_ context.Context, data []byte) (time.Duration, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrProbe)
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	frameSize := int64(d.NumChans) * int64(d.BitDepth) / 8
	if frameSize <= 0 || d.SampleRate == 0 {
		return 0, fmt.Errorf("%w: missing format information", ErrProbe)
	}
	frames := d.PCMLen() / frameSize
	if frames <= 0 {
		return 0, fmt.Errorf("%w: empty data chunk", ErrProbe)
	}
	return time.Duration(frames * int64(time.Second) / int64(d.SampleRate)), nil
}
