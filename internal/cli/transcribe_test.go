package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxpipe/voxpipe/internal/config"
	"github.com/voxpipe/voxpipe/internal/lang"
	"github.com/voxpipe/voxpipe/internal/transcribe"
	"github.com/voxpipe/voxpipe/internal/wav"
)

// ---------------------------------------------------------------------------
// Unit tests for helper functions
// ---------------------------------------------------------------------------

func TestDeriveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"wav_to_txt", "session.wav", "session.txt"},
		{"mp3_to_txt", "meeting.mp3", "meeting.txt"},
		{"no_extension", "audio", "audio.txt"},
		{"double_extension", "file.backup.wav", "file.backup.txt"},
		{"path_with_dir", "/home/user/audio.wav", "/home/user/audio.txt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := DeriveOutputPath(tt.input)
			if result != tt.expected {
				t.Errorf("DeriveOutputPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSupportedFormatsList(t *testing.T) {
	t.Parallel()

	result := SupportedFormatsList()

	// Should contain common formats
	for _, format := range []string{"ogg", "mp3", "wav", "m4a", "flac"} {
		if !strings.Contains(result, format) {
			t.Errorf("expected %q in supported formats list, got %q", format, result)
		}
	}

	// Should be comma-separated and sorted
	if !strings.Contains(result, ", ") {
		t.Errorf("expected comma-separated list, got %q", result)
	}
	if strings.Index(result, "flac") > strings.Index(result, "wav") {
		t.Errorf("expected sorted list, got %q", result)
	}
}

// ---------------------------------------------------------------------------
// Tests for runTranscribe
// ---------------------------------------------------------------------------

// createTranscribeCmd creates a cobra.Command for testing runTranscribe.
// This is needed because runTranscribe expects a *cobra.Command for context.
func createTranscribeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

// createTestAudioFile writes a small payload under t.TempDir and returns
// its path. The content is not valid audio; small payloads pass through
// to the transcriber untouched.
func createTestAudioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunTranscribe_FileNotFound(t *testing.T) {
	t.Parallel()

	env, _ := testEnv()
	cmd := createTranscribeCmd(context.Background())

	err := RunTranscribe(cmd, env, "/nonexistent/file.wav", "", "", false, "")
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("RunTranscribe() error = %v, want ErrFileNotFound", err)
	}
}

func TestRunTranscribe_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.txt")

	env, _ := testEnv()
	cmd := createTranscribeCmd(context.Background())

	err := RunTranscribe(cmd, env, inputPath, "", "", false, "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("RunTranscribe() error = %v, want ErrUnsupportedFormat", err)
	}
	// Rejection must enumerate what is accepted.
	if !strings.Contains(err.Error(), SupportedFormatsList()) {
		t.Errorf("RunTranscribe() error = %q, want supported formats listed", err.Error())
	}
}

func TestRunTranscribe_InvalidLanguage(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")

	env, _ := testEnv()
	cmd := createTranscribeCmd(context.Background())

	err := RunTranscribe(cmd, env, inputPath, "", "klingon", false, "")
	if !errors.Is(err, lang.ErrInvalid) {
		t.Errorf("RunTranscribe() error = %v, want lang.ErrInvalid", err)
	}
}

func TestRunTranscribe_Success(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")

	factory := &mockTranscriberFactory{transcriber: &mockTranscriber{
		result: &transcribe.Result{Text: "hello from the mock", Language: "en"},
	}}
	env, stderr := testEnv()
	env.TranscriberFactory = factory
	cmd := createTranscribeCmd(context.Background())

	if err := RunTranscribe(cmd, env, inputPath, "", "", false, ""); err != nil {
		t.Fatalf("RunTranscribe() error = %v", err)
	}

	out := DeriveOutputPath(inputPath)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if string(data) != "hello from the mock" {
		t.Errorf("output = %q", data)
	}
	if factory.endpoint != config.DefaultAPIURL {
		t.Errorf("endpoint = %q, want default", factory.endpoint)
	}
	if got := factory.transcriber.lastOptions().Language; got != lang.Auto {
		t.Errorf("language = %q, want auto when unspecified", got)
	}
	if !strings.Contains(stderr.String(), "Done:") {
		t.Errorf("stderr missing completion line:\n%s", stderr.String())
	}
}

func TestRunTranscribe_LanguageNormalized(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")
	output := filepath.Join(t.TempDir(), "out.txt")

	factory := &mockTranscriberFactory{}
	env, _ := testEnv()
	env.TranscriberFactory = factory
	cmd := createTranscribeCmd(context.Background())

	if err := RunTranscribe(cmd, env, inputPath, output, "pt-BR", true, ""); err != nil {
		t.Fatalf("RunTranscribe() error = %v", err)
	}

	opts := factory.transcriber.lastOptions()
	if opts.Language != "pt" {
		t.Errorf("language = %q, want regional variant collapsed to pt", opts.Language)
	}
	if !opts.Timestamps {
		t.Error("timestamps flag not forwarded")
	}
}

func TestRunTranscribe_OutputExists(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")
	output := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(output, []byte("precious"), 0o600); err != nil {
		t.Fatal(err)
	}

	env, _ := testEnv()
	cmd := createTranscribeCmd(context.Background())

	err := RunTranscribe(cmd, env, inputPath, output, "", false, "")
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("RunTranscribe() error = %v, want ErrOutputExists", err)
	}

	// Existing content untouched.
	data, _ := os.ReadFile(output)
	if string(data) != "precious" {
		t.Errorf("existing output was modified: %q", data)
	}
}

func TestRunTranscribe_ExportArtifact(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")
	dir := t.TempDir()
	output := filepath.Join(dir, "out.txt")
	exportPath := filepath.Join(dir, "report.txt")

	env, _ := testEnv()
	cmd := createTranscribeCmd(context.Background())

	if err := RunTranscribe(cmd, env, inputPath, output, "", false, exportPath); err != nil {
		t.Fatalf("RunTranscribe() error = %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("export artifact not written: %v", err)
	}
	artifact := string(data)
	if !strings.Contains(artifact, "audio.wav") {
		t.Errorf("artifact missing title:\n%s", artifact)
	}
	if !strings.Contains(artifact, "Generated:") {
		t.Errorf("artifact missing timestamp line:\n%s", artifact)
	}
	if !strings.Contains(artifact, "mock transcript") {
		t.Errorf("artifact missing transcript text:\n%s", artifact)
	}
}

func TestRunTranscribe_PipelineFailure(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")
	output := filepath.Join(t.TempDir(), "out.txt")

	factory := &mockTranscriberFactory{transcriber: &mockTranscriber{
		err: errors.New("provider exploded"),
	}}
	env, stderr := testEnv()
	env.TranscriberFactory = factory
	cmd := createTranscribeCmd(context.Background())

	err := RunTranscribe(cmd, env, inputPath, output, "", false, "")
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("RunTranscribe() error = %v, want ErrTranscriptionFailed", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("no output file should be written on failure")
	}
	if !strings.Contains(stderr.String(), "Failed on chunk") {
		t.Errorf("stderr missing failure summary:\n%s", stderr.String())
	}
}

func TestRunTranscribe_ChunkFailureShowsPartialTranscript(t *testing.T) {
	t.Parallel()

	// A real 3s WAV with 1s limits splits into 3 chunks; chunk 2 fails.
	payload, err := wav.Encode(&wav.Buffer{
		SampleRate: 100,
		Channels:   [][]float64{make([]float64, 300)},
	})
	if err != nil {
		t.Fatal(err)
	}
	inputPath := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(inputPath, payload, 0o600); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(t.TempDir(), "out.txt")

	factory := &mockTranscriberFactory{transcriber: &mockTranscriber{
		results: []*transcribe.Result{
			{Text: "the recovered first chunk words", Language: "en"},
		},
		errs: []error{nil, errors.New("connection reset")},
	}}
	env, stderr := testEnv()
	env.ConfigLoader = &mockConfigLoader{cfg: config.Config{
		APIURL:        config.DefaultAPIURL,
		ChunkDuration: time.Second,
		MaxDuration:   time.Second,
		MaxSizeMB:     config.DefaultMaxSizeMB,
	}}
	env.TranscriberFactory = factory
	cmd := createTranscribeCmd(context.Background())

	err = RunTranscribe(cmd, env, inputPath, output, "", false, "")
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("RunTranscribe() error = %v, want ErrTranscriptionFailed", err)
	}

	// What the user got must include the completed chunks' text plus the
	// completed/total counts and the proximate error.
	got := stderr.String()
	if !strings.Contains(got, "the recovered first chunk words") {
		t.Errorf("stderr missing partial transcript:\n%s", got)
	}
	if !strings.Contains(got, "Failed on chunk 2 of 3 (1 completed)") {
		t.Errorf("stderr missing completed/total counts:\n%s", got)
	}
	if !strings.Contains(got, "connection reset") {
		t.Errorf("stderr missing proximate error:\n%s", got)
	}
	if factory.transcriber.callCount() != 2 {
		t.Errorf("transcription calls = %d, want 2 (abort on failure)", factory.transcriber.callCount())
	}
}

func TestRunTranscribe_ConfigLoadFailureWarnsAndContinues(t *testing.T) {
	t.Parallel()

	inputPath := createTestAudioFile(t, "audio.wav")
	output := filepath.Join(t.TempDir(), "out.txt")

	factory := &mockTranscriberFactory{}
	env, stderr := testEnv()
	env.ConfigLoader = &mockConfigLoader{err: errors.New("corrupt config")}
	env.TranscriberFactory = factory
	cmd := createTranscribeCmd(context.Background())

	if err := RunTranscribe(cmd, env, inputPath, output, "", false, ""); err != nil {
		t.Fatalf("RunTranscribe() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "Warning: failed to load config") {
		t.Errorf("stderr missing config warning:\n%s", stderr.String())
	}
	if factory.endpoint != config.DefaultAPIURL {
		t.Errorf("endpoint = %q, want default fallback", factory.endpoint)
	}
}

// ---------------------------------------------------------------------------
// Tests for writeExclusive
// ---------------------------------------------------------------------------

func TestWriteExclusive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.txt")

	if err := WriteExclusive(path, "content"); err != nil {
		t.Fatalf("WriteExclusive() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "content" {
		t.Errorf("content = %q", data)
	}

	if err := WriteExclusive(path, "other"); !errors.Is(err, ErrOutputExists) {
		t.Errorf("second write error = %v, want ErrOutputExists", err)
	}
}

// ---------------------------------------------------------------------------
// Command wiring
// ---------------------------------------------------------------------------

func TestTranscribeCmd_Flags(t *testing.T) {
	t.Parallel()

	cmd := TranscribeCmd(NewEnv())
	for _, name := range []string{"output", "language", "timestamps", "export"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag %q", name)
		}
	}
}

func TestServeCmd_Flags(t *testing.T) {
	t.Parallel()

	cmd := ServeCmd(NewEnv())
	flag := cmd.Flags().Lookup("addr")
	if flag == nil {
		t.Fatal("missing flag addr")
	}
	if flag.DefValue != ":8090" {
		t.Errorf("addr default = %q, want :8090", flag.DefValue)
	}
}
