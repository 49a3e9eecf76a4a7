package cli

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/voxpipe/voxpipe/internal/config"
	"github.com/voxpipe/voxpipe/internal/transcribe"
)

// syncBuffer is a thread-safe bytes.Buffer for capturing stderr.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// mockConfigLoader returns a fixed configuration.
type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.err != nil {
		return config.Config{}, m.err
	}
	if m.cfg == (config.Config{}) {
		return config.Config{
			APIURL:        config.DefaultAPIURL,
			ChunkDuration: config.DefaultChunkDuration,
			MaxDuration:   config.DefaultMaxDuration,
			MaxSizeMB:     config.DefaultMaxSizeMB,
		}, nil
	}
	return m.cfg, nil
}

// mockTranscriber returns canned results and records calls. When the
// results/errs sequences are set, call n gets entry n; otherwise the
// single result/err pair applies to every call.
type mockTranscriber struct {
	mu      sync.Mutex
	calls   int
	lastOpt transcribe.Options
	result  *transcribe.Result
	err     error
	results []*transcribe.Result
	errs    []error
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, opts transcribe.Options) (*transcribe.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	m.lastOpt = opts
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.results) && m.results[idx] != nil {
		return m.results[idx], nil
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &transcribe.Result{Text: "mock transcript", Language: "en"}, nil
}

func (m *mockTranscriber) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockTranscriber) lastOptions() transcribe.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpt
}

// mockTranscriberFactory hands out a shared mockTranscriber and records
// the endpoint it was asked to bind.
type mockTranscriberFactory struct {
	transcriber *mockTranscriber
	endpoint    string
}

func (m *mockTranscriberFactory) NewTranscriber(endpoint string) transcribe.Transcriber {
	m.endpoint = endpoint
	if m.transcriber == nil {
		m.transcriber = &mockTranscriber{}
	}
	return m.transcriber
}

// fixedTime returns a Now function pinned to t.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// testEnv builds an Env wired with mocks, returning the stderr buffer
// for assertions.
func testEnv() (*Env, *syncBuffer) {
	stderr := &syncBuffer{}
	env := &Env{
		Stderr:             stderr,
		Getenv:             func(string) string { return "" },
		Now:                fixedTime(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		ConfigLoader:       &mockConfigLoader{},
		TranscriberFactory: &mockTranscriberFactory{},
	}
	return env, stderr
}
