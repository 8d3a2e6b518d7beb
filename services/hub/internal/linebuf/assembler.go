// Package linebuf reassembles a byte stream into newline-delimited lines
// inside a fixed-capacity buffer.
package linebuf

import (
	"serialhub-go/types"
	"serialhub-go/x/mathx"
	"serialhub-go/x/strx"
)

const (
	minSize = 2
	maxSize = 256
)

// Status is the outcome of feeding one byte.
type Status uint8

const (
	None     Status = iota // byte buffered (or nothing to report)
	Complete               // a line terminator closed the buffer
	Overflow               // the buffer hit capacity and was discarded
)

// Assembler owns the in-flight line of one channel.
// It is not safe for concurrent use; the poll loop owns it exclusively.
type Assembler struct {
	buf       []byte
	size      int
	overflows uint32
}

// New returns an assembler holding at most size-1 bytes; size is clamped to
// 2..256 and 0 selects the default.
func New(size int) *Assembler {
	if size == 0 {
		size = types.DefaultBufferSize
	}
	size = mathx.Clamp(size, minSize, maxSize)
	return &Assembler{buf: make([]byte, 0, size), size: size}
}

// Feed consumes one byte.
//
// On '\n' the buffered bytes, trimmed of surrounding ASCII whitespace, are
// returned with Complete and the buffer is cleared. A byte that would bring
// the length to the capacity is dropped together with the buffer and
// reported as Overflow; assembly resumes with the next byte.
func (a *Assembler) Feed(b byte) (string, Status) {
	if b == '\n' {
		line := string(strx.TrimSpaceASCII(a.buf))
		a.buf = a.buf[:0]
		return line, Complete
	}
	if len(a.buf)+1 >= a.size {
		a.buf = a.buf[:0]
		a.overflows++
		return "", Overflow
	}
	a.buf = append(a.buf, b)
	return "", None
}

// Len returns the number of buffered bytes.
func (a *Assembler) Len() int { return len(a.buf) }

// Cap returns the configured capacity.
func (a *Assembler) Cap() int { return a.size }

// Bytes returns a view of the buffered bytes, valid until the next Feed.
func (a *Assembler) Bytes() []byte { return a.buf }

// Overflows returns how many lines were discarded for length.
func (a *Assembler) Overflows() uint32 { return a.overflows }

// Reset drops any partial line. Counters are kept.
func (a *Assembler) Reset() { a.buf = a.buf[:0] }
