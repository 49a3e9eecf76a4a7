// Package wav decodes WAV containers into per-channel sample buffers and
// encodes buffers back into minimal 16-bit PCM WAV files.
//
// Decode and Encode are pure transforms with no shared state; calls may run
// concurrently.
package wav

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// ErrDecode indicates the byte stream is not a parseable WAV container.
var ErrDecode = errors.New("unparseable audio data")

// pcmFormat is the WAV format tag for uncompressed PCM.
const pcmFormat = 1

// encodeBitDepth is the sample width written by Encode.
const encodeBitDepth = 16

// Buffer holds decoded audio as per-channel float samples nominally in
// [-1.0, 1.0]. All channels have equal length. A Buffer is treated as an
// immutable value after creation.
type Buffer struct {
	SampleRate int         // Hz, positive
	Channels   [][]float64 // one slice per channel, equal lengths
}

// NumSamples returns the per-channel sample count.
func (b *Buffer) NumSamples() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(b.NumSamples()) * int64(time.Second) / int64(b.SampleRate))
}

// Decode parses a WAV byte stream into per-channel sample buffers.
// Returns an error wrapping ErrDecode if the data is not recognizable WAV.
func Decode(data []byte) (*Buffer, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrDecode)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format information", ErrDecode)
	}

	bits := pcm.SourceBitDepth
	if bits <= 0 {
		bits = int(d.BitDepth)
	}
	if bits <= 0 {
		bits = encodeBitDepth
	}
	// Symmetric scale: decode divides by the same max magnitude Encode
	// multiplies by, so a round-trip stays within one quantization step.
	scale := float64(int(1)<<(bits-1)) - 1

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels

	buf := &Buffer{
		SampleRate: pcm.Format.SampleRate,
		Channels:   make([][]float64, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Channels[ch][i] = float64(pcm.Data[i*channels+ch]) / scale
		}
	}

	return buf, nil
}

// Encode writes the buffer as a minimal WAV file: a fixed-size header
// followed by interleaved 16-bit little-endian PCM frames.
//
// Samples are clamped to [-1.0, 1.0] and scaled to the signed 16-bit range
// with truncation toward zero.
func Encode(buf *Buffer) ([]byte, error) {
	if buf == nil || buf.SampleRate <= 0 || len(buf.Channels) == 0 {
		return nil, fmt.Errorf("encode: buffer has no audio")
	}

	channels := len(buf.Channels)
	frames := buf.NumSamples()

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data[i*channels+ch] = quantize(buf.Channels[ch][i])
		}
	}

	var w seekBuffer
	enc := gowav.NewEncoder(&w, buf.SampleRate, encodeBitDepth, channels, pcmFormat)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: buf.SampleRate},
		SourceBitDepth: encodeBitDepth,
		Data:           data,
	}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return w.Bytes(), nil
}

// quantize converts a float sample to int16 range.
// Clamps first, then truncates toward zero (not banker's rounding):
// wire-format fidelity depends on this exact conversion.
func quantize(v float64) int {
	if v > 1.0 {
		v = 1.0
	}
	if v < -1.0 {
		v = -1.0
	}
	return int(v * 32767)
}
