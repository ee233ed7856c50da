// Package sanitize cleans caller-supplied text before it reaches the engine.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxInputSize bounds node ids and task fields.
	DefaultMaxInputSize = 4096
	// DefaultMaxDocumentSize bounds inline workflow documents.
	DefaultMaxDocumentSize = 1 << 20
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "SOPNAV_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Input enforces the configured size limit, validates UTF-8 and strips
// control characters other than newline, tab and carriage return.
func Input(input string) (string, error) {
	return Text(input, maxInputSize())
}

// Document applies Text with the document limit.
func Document(input string) (string, error) {
	return Text(input, DefaultMaxDocumentSize)
}

// Identifier cleans a node id and trims surrounding whitespace.
func Identifier(input string) (string, error) {
	clean, err := Input(input)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(clean), nil
}

// Text cleans input against an explicit byte limit. Oversized input is
// rejected rather than truncated so state stays deterministic.
func Text(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
