package transport

import (
	"io"

	"tinygo.org/x/drivers"

	"serialhub-go/x/strx"
)

// UART is a hardware UART channel. Any drivers.UART works; on the board it
// is a uartx.UART configured by the provider.
type UART struct {
	u    drivers.UART
	name string
	w    lineWriter
	one  [1]byte
}

var _ Channel = (*UART)(nil)

func NewUART(u drivers.UART, o Options) *UART {
	return &UART{
		u:    u,
		name: strx.Coalesce(o.Name, "uart"),
		w:    lineWriter{nl: o.newline()},
	}
}

func (c *UART) Available() int { return c.u.Buffered() }

func (c *UART) ReadByte() (byte, error) {
	if c.u.Buffered() == 0 {
		return 0, io.EOF
	}
	n, err := c.u.Read(c.one[:])
	if n == 1 {
		return c.one[0], nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

func (c *UART) WriteLine(s string) {
	p := c.w.frame(s)
	if n, err := c.u.Write(p); err != nil || n != len(p) {
		c.w.dropped++
	}
}

func (c *UART) TxDropped() uint32 { return c.w.dropped }
func (c *UART) Kind() Kind        { return KindUART }
func (c *UART) Name() string      { return c.name }
