package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds a console line or a string input, in bytes.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput checks input against limit and drops control characters other
// than newline, tab and carriage return. A limit <= 0 selects
// DefaultMaxInputSize. Oversized input is rejected, never truncated.
func SanitizeInput(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if n := len(input); n > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(dropControl, input), nil
}

func dropControl(r rune) rune {
	switch r {
	case '\n', '\t', '\r':
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
