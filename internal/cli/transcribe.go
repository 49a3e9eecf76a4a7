package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxpipe/voxpipe/internal/config"
	"github.com/voxpipe/voxpipe/internal/export"
	"github.com/voxpipe/voxpipe/internal/format"
	"github.com/voxpipe/voxpipe/internal/lang"
	"github.com/voxpipe/voxpipe/internal/pipeline"
	"github.com/voxpipe/voxpipe/internal/probe"
	"github.com/voxpipe/voxpipe/internal/transcribe"
)

// supportedFormats lists audio formats accepted by the transcription API.
// Files larger than the configured limits must be WAV so they can be
// split locally; smaller files pass through untouched.
var supportedFormats = map[string]bool{
	".ogg":  true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
// The list is sorted for deterministic output in tests and user-facing messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// deriveOutputPath converts an audio file path to a text output path.
// Example: "session.wav" -> "session.txt"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".txt"
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output     string
		language   string
		timestamps bool
		exportOut  string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Long: `Transcribe an audio file through the local transcription proxy.

Audio that exceeds the configured size or duration limits is split into
fixed-duration chunks, transcribed sequentially, and reassembled with
timestamps shifted back to the original timeline.

Supported formats: flac, m4a, mp3, mp4, mpeg, mpga, ogg, wav, webm`,
		Example: `  voxpipe transcribe session.wav -o notes.txt
  voxpipe transcribe meeting.wav -l pt --timestamps
  voxpipe transcribe lecture.wav --export lecture-report.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], output, language, timestamps, exportOut)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>.txt)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "Request per-segment timestamps")
	cmd.Flags().StringVar(&exportOut, "export", "", "Also write a formatted transcript artifact to this path")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: file exists -> format -> language -> output
func runTranscribe(cmd *cobra.Command, env *Env, inputPath, output, language string, timestamps bool, exportOut string) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	// 1. File exists
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	// 2. Format supported
	ext := strings.ToLower(filepath.Ext(inputPath))
	if !supportedFormats[ext] {
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			ext, supportedFormatsList(), ErrUnsupportedFormat)
	}

	// 3. Language validation
	if err := lang.Validate(language); err != nil {
		return err
	}

	// 4. Load config (limits and endpoint); warn and fall back to defaults
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Config{
			APIURL:        config.DefaultAPIURL,
			ChunkDuration: config.DefaultChunkDuration,
			MaxDuration:   config.DefaultMaxDuration,
			MaxSizeMB:     config.DefaultMaxSizeMB,
		}
	}

	// 5. Output path
	if output == "" {
		output = deriveOutputPath(inputPath)
	}

	// === TRANSCRIPTION ===

	payload, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified input file
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}

	transcriber := env.TranscriberFactory.NewTranscriber(cfg.APIURL)
	orchOpts := []pipeline.Option{pipeline.WithProgress(progressPrinter(env))}

	// Non-WAV containers can't be probed from the header; shell out to
	// ffmpeg for the duration when a binary is available.
	if ext != ".wav" {
		if ffmpegPath, lookErr := exec.LookPath("ffmpeg"); lookErr == nil {
			if prober, probeErr := probe.NewFFmpegProber(ffmpegPath); probeErr == nil {
				orchOpts = append(orchOpts, pipeline.WithProber(prober))
			}
		}
	}

	orch := pipeline.New(transcriber, cfg.Limits(), orchOpts...)

	result, err := orch.Run(ctx, payload, transcribe.Options{
		Language:   lang.Base(language),
		Timestamps: timestamps,
	})
	if err != nil {
		return err
	}

	if !result.Success {
		fmt.Fprintf(env.Stderr, "Failed on chunk %d of %d (%d completed): %s\n",
			result.FailedChunk+1, result.TotalChunks, result.CompletedChunks, result.Error)
		if result.PartialText != "" {
			fmt.Fprintf(env.Stderr, "Partial transcript (%d/%d chunks):\n%s\n",
				result.CompletedChunks, result.TotalChunks, result.PartialText)
		}
		return fmt.Errorf("%w: chunk %d: %s", ErrTranscriptionFailed, result.FailedChunk+1, result.Error)
	}

	// === WRITE OUTPUT ===

	if err := writeExclusive(output, result.Text); err != nil {
		return err
	}

	if exportOut != "" {
		artifact := export.Text(filepath.Base(inputPath), result.Text, result.Segments, env.Now())
		if err := writeExclusive(exportOut, artifact); err != nil {
			return err
		}
	}

	if result.DurationKnown {
		fmt.Fprintf(env.Stderr, "Done: %s (%s of audio)\n", output, format.Timestamp(result.Duration))
	} else {
		fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	}
	return nil
}

// progressPrinter renders pipeline progress on stderr.
func progressPrinter(env *Env) pipeline.Sink {
	return func(p pipeline.Progress) {
		if p.Message == "" {
			return
		}
		if p.TotalChunks > 1 && p.Status == pipeline.StatusTranscribing && p.ChunkIndex > 0 {
			fmt.Fprintf(env.Stderr, "  [%d/%d] %s\n", p.ChunkIndex, p.TotalChunks, p.Message)
			return
		}
		fmt.Fprintf(env.Stderr, "%s\n", strings.ToUpper(p.Message[:1])+p.Message[1:])
	}
}

// writeExclusive creates path with O_EXCL so an existing file is never
// clobbered, and removes the partial file on a write failure.
func writeExclusive(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}
