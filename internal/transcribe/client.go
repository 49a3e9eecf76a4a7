package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxpipe/voxpipe/internal/apierr"
	"github.com/voxpipe/voxpipe/internal/format"
)

// Retry configuration: transport failures are retried with a delay that
// scales linearly with the attempt number (baseDelay * n).
const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultHTTPTimeout = 5 * time.Minute
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Transcriber = (*Client)(nil)

// Client sends audio payloads to the transcription proxy endpoint.
// Transport-level failures (connection reset, timeout, generic network
// failure) are retried up to the attempt limit; an HTTP error response
// from the proxy is a rejection and is never retried.
type Client struct {
	endpoint    string
	httpClient  httpDoer
	maxAttempts int
	baseDelay   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(d httpDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = d
	}
}

// WithMaxAttempts sets the total attempt limit.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the base retry delay.
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// NewClient creates a Client targeting the proxy's transcription endpoint,
// e.g. "http://localhost:8090/api/transcribe".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads one payload and returns the normalized result.
func (c *Client) Transcribe(ctx context.Context, payload []byte, opts Options) (*Result, error) {
	cfg := apierr.RetryConfig{
		MaxAttempts: c.maxAttempts,
		BaseDelay:   c.baseDelay,
	}
	return apierr.RetryLinear(ctx, cfg, func() (*Result, error) {
		return c.transcribeOnce(ctx, payload, opts)
	}, apierr.IsRetryable)
}

func (c *Client) transcribeOnce(ctx context.Context, payload []byte, opts Options) (*Result, error) {
	body, contentType, err := buildForm(payload, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp.StatusCode, respBody)
	}
	return parseResponse(respBody)
}

// buildForm assembles the multipart request per the proxy contract:
// fields "file", "language", "include_timestamps".
func buildForm(payload []byte, opts Options) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", fmt.Errorf("failed to write payload: %w", err)
	}

	language := opts.Language
	if language == "" {
		language = "auto"
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, "", fmt.Errorf("failed to write language field: %w", err)
	}
	if err := writer.WriteField("include_timestamps", fmt.Sprintf("%t", opts.Timestamps)); err != nil {
		return nil, "", fmt.Errorf("failed to write include_timestamps field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// wireResponse is the proxy's success JSON shape.
type wireResponse struct {
	Success  bool     `json:"success"`
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Duration *float64 `json:"duration"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// parseResponse normalizes a success response. Segment text is trimmed of
// surrounding whitespace on receipt.
func parseResponse(body []byte) (*Result, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	res := &Result{
		Text:     strings.TrimSpace(wire.Text),
		Language: wire.Language,
	}
	if wire.Duration != nil {
		res.Duration = format.Seconds(*wire.Duration)
		res.DurationKnown = true
	}
	for _, s := range wire.Segments {
		res.Segments = append(res.Segments, Segment{
			ID:    s.ID,
			Start: format.Seconds(s.Start),
			End:   format.Seconds(s.End),
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return res, nil
}

// wireError is the proxy's failure JSON shape.
type wireError struct {
	Error string `json:"error"`
}

// parseErrorResponse maps an HTTP error response to a ProviderError
// carrying the upstream message when one is available.
func parseErrorResponse(status int, body []byte) error {
	var wire wireError
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		return &apierr.ProviderError{Status: status, Message: wire.Error}
	}
	return &apierr.ProviderError{Status: status, Message: strings.TrimSpace(string(body))}
}
