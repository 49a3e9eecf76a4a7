package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	// #nosec G204 -- name and args are controlled by the prober, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	return cmd.CombinedOutput()
}

// FFmpegProber probes duration for arbitrary containers by piping the
// payload through FFmpeg and parsing its stderr. Used when the payload is
// not a WAV file and metadata cannot be read directly.
type FFmpegProber struct {
	ffmpegPath string
	cmd        commandRunner
}

// FFmpegProberOption configures an FFmpegProber.
type FFmpegProberOption func(*FFmpegProber)

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) FFmpegProberOption {
	return func(p *FFmpegProber) {
		p.cmd = r
	}
}

// NewFFmpegProber creates a prober that shells out to the given FFmpeg binary.
func NewFFmpegProber(ffmpegPath string, opts ...FFmpegProberOption) (*FFmpegProber, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty")
	}
	p := &FFmpegProber{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Duration pipes the payload to FFmpeg and parses the reported duration.
func (p *FFmpegProber) Duration(ctx context.Context, data []byte) (time.Duration, error) {
	args := []string{
		"-i", "-",
		"-f", "null", "-",
	}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args, data)
	if err != nil {
		// FFmpeg returns non-zero even when it successfully reads file info,
		// so we try to parse the output anyway.
		if len(output) == 0 {
			return 0, fmt.Errorf("%w: %v", ErrProbe, err)
		}
	}
	return parseFFmpegDuration(string(output))
}

// Patterns matched in FFmpeg stderr, in order of preference.
var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	timeRe     = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// parseFFmpegDuration extracts a duration from FFmpeg stderr output.
// Prefers the "Duration: HH:MM:SS.cc" header line; falls back to the last
// "time=HH:MM:SS.cc" progress line.
func parseFFmpegDuration(output string) (time.Duration, error) {
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	if all := timeRe.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	return 0, fmt.Errorf("%w: no duration in ffmpeg output", ErrProbe)
}

// timeComponents converts HH:MM:SS.frac strings to a Duration.
// The fractional part may carry 1 to 6+ digits.
func timeComponents(hours, minutes, seconds, fractional string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}
