// Package server implements the transcription proxy: it accepts multipart
// audio uploads, forwards them to the provider, and returns normalized
// JSON. The pipeline's transcription client talks to this endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// providerClient is the slice of the provider SDK the proxy uses.
// *openai.Client implements it; tests inject fakes.
type providerClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance check.
var _ providerClient = (*openai.Client)(nil)

// Service is the HTTP proxy service.
type Service struct {
	addr     string
	provider providerClient
	server   *http.Server
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProvider sets the provider client (for testing).
func WithProvider(p providerClient) ServiceOption {
	return func(s *Service) {
		s.provider = p
	}
}

// New creates the proxy service. apiKey may be empty: the service still
// starts, and transcription requests fail with a configuration error.
func New(addr, apiKey string, opts ...ServiceOption) *Service {
	s := &Service{addr: addr}
	if apiKey != "" {
		s.provider = openai.NewClient(apiKey)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Service) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/api/transcribe", s.handleTranscribe)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("starting transcription proxy")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Debug().Err(err).Msg("shutdown did not complete cleanly")
		return err
	}
	log.Info().Msg("transcription proxy stopped")
	return nil
}

// requestLogger logs one line per request, skipping health checks.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
