package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/voxpipe/voxpipe/internal/lang"
)

// wireSegment matches the response contract's segment shape.
type wireSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// wireSuccess is the proxy's success response body.
type wireSuccess struct {
	Success  bool          `json:"success"`
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration *float64      `json:"duration,omitempty"`
	Segments []wireSegment `json:"segments,omitempty"`
}

// handleTranscribe forwards one multipart upload to the provider.
//
// Contract: field "file" is the binary payload, "language" an ISO 639-1
// code or "auto", "include_timestamps" the string "true" or "false".
// Failures return {"error": ...} with a status mirroring the provider's,
// 400 for a missing file, or 500 for a missing credential or transport
// failure.
func (s *Service) handleTranscribe(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer func() { _ = file.Close() }()

	if s.provider == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transcription API key not configured"})
		return
	}

	language := lang.Base(c.PostForm("language"))
	verbose := c.PostForm("include_timestamps") == "true"

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   file,
		FilePath: header.Filename,
		Format:   openai.AudioResponseFormatJSON,
	}
	if language != lang.Auto {
		req.Language = language
	}
	if verbose {
		req.Format = openai.AudioResponseFormatVerboseJSON
	}

	resp, err := s.provider.CreateTranscription(c.Request.Context(), req)
	if err != nil {
		status, body := providerFailure(err)
		log.Warn().Err(err).Int("status", status).Msg("provider call failed")
		c.JSON(status, body)
		return
	}

	out := wireSuccess{
		Success:  true,
		Text:     resp.Text,
		Language: resp.Language,
	}
	if resp.Duration > 0 {
		d := resp.Duration
		out.Duration = &d
	}
	if verbose {
		for _, seg := range resp.Segments {
			out.Segments = append(out.Segments, wireSegment{
				ID:    seg.ID,
				Start: seg.Start,
				End:   seg.End,
				Text:  strings.TrimSpace(seg.Text),
			})
		}
	}
	c.JSON(http.StatusOK, out)
}

// providerFailure maps a provider SDK error to a mirrored status and
// response body. Provider rejections keep their upstream status and
// message; anything else is an internal/transport failure.
func providerFailure(err error) (int, gin.H) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		body := gin.H{"error": apiErr.Message}
		if apiErr.Type != "" {
			body["details"] = gin.H{"type": apiErr.Type}
		}
		return status, body
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
