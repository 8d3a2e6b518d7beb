package transport

import (
	"io"

	"serialhub-go/x/shmring"
	"serialhub-go/x/strx"
)

// Soft is a PIO-emulated serial channel. The emulation engine produces into
// rx and consumes from tx; the channel is the other end of both rings.
type Soft struct {
	rx, tx *shmring.Ring
	name   string
	w      lineWriter
}

var _ Channel = (*Soft)(nil)

func NewSoft(rx, tx *shmring.Ring, o Options) *Soft {
	return &Soft{
		rx:   rx,
		tx:   tx,
		name: strx.Coalesce(o.Name, "soft"),
		w:    lineWriter{nl: o.newline()},
	}
}

func (c *Soft) Available() int { return c.rx.Available() }

func (c *Soft) ReadByte() (byte, error) {
	b, ok := c.rx.TryReadByte()
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// WriteLine drops the whole line if the tx ring cannot take all of it, so a
// slow engine never sees half a line.
func (c *Soft) WriteLine(s string) {
	p := c.w.frame(s)
	if c.tx.Space() < len(p) {
		c.w.dropped++
		return
	}
	c.tx.TryWriteFrom(p)
}

func (c *Soft) TxDropped() uint32 { return c.w.dropped }
func (c *Soft) Kind() Kind        { return KindSoft }
func (c *Soft) Name() string      { return c.name }

// Rings exposes the engine side of the channel.
func (c *Soft) Rings() (rx, tx *shmring.Ring) { return c.rx, c.tx }

// RingStream adapts a ring pair to ByteStream, for an upstream link whose
// bytes are pumped by another goroutine.
type RingStream struct {
	rx, tx *shmring.Ring
}

var _ ByteStream = (*RingStream)(nil)

func NewRingStream(rx, tx *shmring.Ring) *RingStream { return &RingStream{rx: rx, tx: tx} }

func (s *RingStream) Buffered() int { return s.rx.Available() }

func (s *RingStream) ReadByte() (byte, error) {
	b, ok := s.rx.TryReadByte()
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// Write is all-or-nothing, matching Soft.WriteLine.
func (s *RingStream) Write(p []byte) (int, error) {
	if s.tx.Space() < len(p) {
		return 0, io.ErrShortWrite
	}
	return s.tx.TryWriteFrom(p), nil
}
