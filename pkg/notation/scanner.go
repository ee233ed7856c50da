package notation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/sopnav/pkg/domain"
)

// cursor walks a single source line rune by rune.
type cursor struct {
	line int
	src  []rune
	pos  int
}

func newCursor(line int, text string) *cursor {
	return &cursor{line: line, src: []rune(text)}
}

// col returns the 1-based column of the current position.
func (c *cursor) col() int { return c.pos + 1 }

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

func (c *cursor) peek() rune {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) hasPrefix(s string) bool {
	rs := []rune(s)
	if c.pos+len(rs) > len(c.src) {
		return false
	}
	for i, r := range rs {
		if c.src[c.pos+i] != r {
			return false
		}
	}
	return true
}

func (c *cursor) skipSpace() {
	for !c.eof() && unicode.IsSpace(c.peek()) {
		c.pos++
	}
}

// indexFrom returns the rune offset of s at or after the current position, or -1.
func (c *cursor) indexFrom(s string) int {
	rs := []rune(s)
	for i := c.pos; i+len(rs) <= len(c.src); i++ {
		match := true
		for j, r := range rs {
			if c.src[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (c *cursor) errorf(col int, format string, args ...any) *domain.ParseError {
	return &domain.ParseError{Line: c.line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func isIDRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ident consumes a node identifier.
func (c *cursor) ident() string {
	start := c.pos
	for !c.eof() && isIDRune(c.peek()) {
		c.pos++
	}
	return string(c.src[start:c.pos])
}

// enclosed consumes open, a label (optionally double-quoted) and close.
func (c *cursor) enclosed(open, close string) (string, error) {
	start := c.col()
	c.pos += len([]rune(open))

	if c.peek() == '"' {
		c.pos++
		end := c.indexFrom(`"`)
		if end < 0 {
			return "", c.errorf(start, "unterminated quoted label")
		}
		label := string(c.src[c.pos:end])
		c.pos = end + 1
		c.skipSpace()
		if !c.hasPrefix(close) {
			return "", c.errorf(c.col(), "expected %q after quoted label", close)
		}
		c.pos += len([]rune(close))
		return unescape(label), nil
	}

	end := c.indexFrom(close)
	if end < 0 {
		return "", c.errorf(start, "unterminated label: missing %q", close)
	}
	label := strings.TrimSpace(string(c.src[c.pos:end]))
	c.pos = end + len([]rune(close))
	return unescape(label), nil
}

var (
	unescaper = strings.NewReplacer("#quot;", `"`, "#124;", "|")
	escaper   = strings.NewReplacer(`"`, "#quot;", "|", "#124;")
)

func unescape(s string) string {
	if !strings.Contains(s, "#") {
		return s
	}
	return unescaper.Replace(s)
}

func escape(s string) string {
	return escaper.Replace(s)
}
