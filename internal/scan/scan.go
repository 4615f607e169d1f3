// Package scan provides the small hand-rolled text cursor shared by the
// DDS and DAS grammars. Both grammars are flat, line/brace-oriented, and
// fully specified, so a byte-position cursor with a handful of typed
// reads is all either parser needs.
package scan

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor walks a UTF-8 source string left to right, tracking a byte
// position. It never backtracks past a position a caller has committed to
// by advancing it.
type Cursor struct {
	src string
	pos int
}

func New(src string) *Cursor {
	return &Cursor{src: src}
}

// Pos returns the current byte offset, useful for error messages.
func (c *Cursor) Pos() int { return c.pos }

// Eof reports whether the cursor has consumed the entire source.
func (c *Cursor) Eof() bool { return c.pos >= len(c.src) }

// Peek returns the byte at the cursor without advancing it.
func (c *Cursor) Peek() (byte, bool) {
	if c.Eof() {
		return 0, false
	}
	return c.src[c.pos], true
}

// SkipSpace advances over spaces and tabs only.
func (c *Cursor) SkipSpace() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t':
			c.pos++
		default:
			return
		}
	}
}

// SkipWhitespace advances over spaces, tabs, and newlines (LF or CRLF).
func (c *Cursor) SkipWhitespace() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

// HasPrefix reports whether the unconsumed remainder starts with s,
// without advancing the cursor.
func (c *Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.src[c.pos:], s)
}

// Expect skips leading whitespace, then consumes the literal tag or
// returns an error naming the byte offset and the expected tag.
func (c *Cursor) Expect(tag string) error {
	c.SkipWhitespace()
	if !c.HasPrefix(tag) {
		return fmt.Errorf("at byte %d: expected %q", c.pos, tag)
	}
	c.pos += len(tag)
	return nil
}

// TryConsume skips leading whitespace and, if the remainder starts with
// tag, consumes it and returns true; otherwise the cursor is left at the
// post-whitespace-skip position and false is returned.
func (c *Cursor) TryConsume(tag string) bool {
	c.SkipWhitespace()
	if !c.HasPrefix(tag) {
		return false
	}
	c.pos += len(tag)
	return true
}

func isIdentByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '/' || b == '.' || b == '-' || b == '%' || b == ':':
		return true
	default:
		return false
	}
}

// TakeIdent reads an identifier: a run of letters, digits, and the bytes
// _ / . - % : (dataset names carry paths like "data/swden/44097.nc").
// Position within the run is not checked.
func (c *Cursor) TakeIdent() (string, error) {
	c.SkipWhitespace()
	start := c.pos
	for c.pos < len(c.src) && isIdentByte(c.src[c.pos]) {
		c.pos++
	}
	if c.pos == start {
		return "", fmt.Errorf("at byte %d: expected identifier", c.pos)
	}
	return c.src[start:c.pos], nil
}

// TakeUint reads an unsigned decimal integer.
func (c *Cursor) TakeUint() (uint64, error) {
	c.SkipWhitespace()
	start := c.pos
	for c.pos < len(c.src) && c.src[c.pos] >= '0' && c.src[c.pos] <= '9' {
		c.pos++
	}
	if c.pos == start {
		return 0, fmt.Errorf("at byte %d: expected integer", c.pos)
	}
	return strconv.ParseUint(c.src[start:c.pos], 10, 64)
}

// TakeUntilByte reads up to (not including) the next occurrence of delim,
// advancing the cursor past it. It does not skip leading whitespace.
func (c *Cursor) TakeUntilByte(delim byte) (string, error) {
	idx := strings.IndexByte(c.src[c.pos:], delim)
	if idx < 0 {
		return "", fmt.Errorf("at byte %d: expected %q before end of input", c.pos, delim)
	}
	s := c.src[c.pos : c.pos+idx]
	c.pos += idx + 1
	return s, nil
}

// Remainder returns everything not yet consumed.
func (c *Cursor) Remainder() string {
	return c.src[c.pos:]
}
