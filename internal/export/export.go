// Package export renders a completed transcription as a plain-text
// download artifact.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxpipe/voxpipe/internal/format"
	"github.com/voxpipe/voxpipe/internal/transcribe"
)

// Text renders a transcript for download.
//
// When segments exist, each is rendered as a bracketed "[start - end]"
// timestamp line followed by the segment text and a blank line. Without
// segments, a header block (title line, generation-time line, separator
// line) precedes the raw transcript text.
func Text(title, text string, segments []transcribe.Segment, generatedAt time.Time) string {
	var b strings.Builder

	if len(segments) > 0 {
		for _, s := range segments {
			fmt.Fprintf(&b, "[%s - %s]\n%s\n\n",
				format.Timestamp(s.Start),
				format.Timestamp(s.End),
				s.Text)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("-", 40))
	fmt.Fprintf(&b, "%s\n", text)
	return b.String()
}
