// Package transport gives the poll loop one byte-level view over the
// upstream link, the hardware UARTs and the PIO-emulated serial ports.
package transport

import "io"

// Kind identifies the backing transport of a Channel.
type Kind uint8

const (
	KindHost Kind = iota + 1 // upstream host link (USB CDC)
	KindUART                 // hardware UART
	KindSoft                 // PIO-emulated UART
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindUART:
		return "uart"
	case KindSoft:
		return "soft"
	default:
		return "unknown"
	}
}

// DefaultNewline terminates every written line unless a channel overrides it.
const DefaultNewline = "\n"

// Channel is the capability the poll loop needs from any transport.
// None of the methods block.
type Channel interface {
	// Available returns the bytes ready to read.
	Available() int
	// ReadByte is valid only after Available reported data.
	io.ByteReader
	// WriteLine transmits s followed by the channel newline. Failures are
	// counted, never returned.
	WriteLine(s string)
	// TxDropped counts lines the transport refused or truncated.
	TxDropped() uint32
	Kind() Kind
	Name() string
}

// Options are shared by all channel constructors.
type Options struct {
	Name    string
	Newline string // empty selects DefaultNewline
}

func (o Options) newline() string {
	if o.Newline == "" {
		return DefaultNewline
	}
	return o.Newline
}

// lineWriter frames lines into a reusable scratch buffer so that each line
// leaves in a single Write.
type lineWriter struct {
	nl      string
	scratch []byte
	dropped uint32
}

func (w *lineWriter) frame(s string) []byte {
	w.scratch = append(w.scratch[:0], s...)
	w.scratch = append(w.scratch, w.nl...)
	return w.scratch
}
