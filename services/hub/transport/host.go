package transport

import (
	"io"

	"serialhub-go/x/strx"
)

// ByteStream is the surface of the upstream link. TinyGo's machine.Serial
// satisfies it, as does NewRingStream on the host.
type ByteStream interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// HostLink is the upstream channel to the host.
type HostLink struct {
	s    ByteStream
	name string
	w    lineWriter
}

var _ Channel = (*HostLink)(nil)

func NewHostLink(s ByteStream, o Options) *HostLink {
	return &HostLink{
		s:    s,
		name: strx.Coalesce(o.Name, "host"),
		w:    lineWriter{nl: o.newline()},
	}
}

func (h *HostLink) Available() int { return h.s.Buffered() }

func (h *HostLink) ReadByte() (byte, error) {
	if h.s.Buffered() == 0 {
		return 0, io.EOF
	}
	return h.s.ReadByte()
}

func (h *HostLink) WriteLine(s string) {
	p := h.w.frame(s)
	if n, err := h.s.Write(p); err != nil || n != len(p) {
		h.w.dropped++
	}
}

func (h *HostLink) TxDropped() uint32 { return h.w.dropped }
func (h *HostLink) Kind() Kind        { return KindHost }
func (h *HostLink) Name() string      { return h.name }
