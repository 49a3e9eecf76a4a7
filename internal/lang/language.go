// Package lang validates language hints for transcription requests.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid indicates an unrecognized language code.
var ErrInvalid = errors.New("invalid language code")

// Auto requests provider-side language detection.
const Auto = "auto"

// supported lists the ISO 639-1 base codes the transcription provider
// accepts. Not exhaustive, but covers common languages.
var supported = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "ca": true,
	"cs": true, "da": true, "de": true, "el": true, "en": true,
	"es": true, "et": true, "fa": true, "fi": true, "fr": true,
	"he": true, "hi": true, "hr": true, "hu": true, "id": true,
	"it": true, "ja": true, "ko": true, "lt": true, "lv": true,
	"ms": true, "nl": true, "no": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true,
	"sv": true, "sw": true, "ta": true, "th": true, "tl": true,
	"tr": true, "uk": true, "ur": true, "vi": true, "zh": true,
}

// Base strips a regional suffix: "pt-BR" -> "pt". Empty input maps to
// Auto.
func Base(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Auto
	}
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// Validate checks a user-supplied language code. Empty and "auto" are
// always valid (detection); otherwise the base code must be a supported
// ISO 639-1 code.
func Validate(code string) error {
	base := Base(code)
	if base == Auto {
		return nil
	}
	if !supported[base] {
		return fmt.Errorf("%w: %q (use an ISO 639-1 code such as en, fr, pt)", ErrInvalid, code)
	}
	return nil
}
