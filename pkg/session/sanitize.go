package session

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/parley/pkg/domain"
)

// DefaultMaxInputSize is the largest reply, in bytes, Resume accepts.
const DefaultMaxInputSize = 4096

// SanitizeInput rejects oversized or non-UTF-8 replies and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected, never truncated.
func SanitizeInput(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: reply is %d bytes, limit is %d", domain.ErrInvalidInput, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: reply is not valid UTF-8", domain.ErrInvalidInput)
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
