// Package hub multiplexes six downstream serial channels over one upstream
// link. Everything runs on the caller's goroutine; nothing blocks.
package hub

import (
	"context"
	"runtime"
	"time"

	"serialhub-go/errcode"
	"serialhub-go/services/hub/internal/linebuf"
	"serialhub-go/services/hub/internal/router"
	"serialhub-go/services/hub/internal/routing"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/conv"
)

// LocalHandler runs port 0 payloads such as "fan 50".
type LocalHandler = router.LocalHandler

// Config tunes the poll loop.
type Config struct {
	// BufferSize is the per-channel line capacity; 0 selects 32.
	BufferSize int
	// IdleSleep is slept after an iteration that consumed nothing. Zero
	// only yields the processor.
	IdleSleep time.Duration
	// Observer, if set, receives every routing decision.
	Observer types.HubObserver
}

// Bindings are the channels behind each port. All seven are required.
type Bindings struct {
	Upstream transport.Channel
	Hardware [types.HardwarePorts]transport.Channel // ports 1..2
	Soft     [types.SoftPorts]transport.Channel     // ports 3..6
}

type slot struct {
	port  types.Port
	ch    transport.Channel
	asm   *linebuf.Assembler
	tag   string // "<port> "
	stats types.ChannelStats
}

// Hub is the poll loop. It owns one assembler per channel.
type Hub struct {
	cfg    Config
	up     slot
	down   [types.Downstream]slot
	router *router.Router
}

// New validates the bindings and builds the loop state.
func New(cfg Config, b Bindings, local LocalHandler) (*Hub, error) {
	if b.Upstream == nil {
		return nil, &errcode.E{C: errcode.UnboundPort, Op: "hub.New", Msg: "upstream"}
	}
	table, err := routing.New(b.Hardware, b.Soft)
	if err != nil {
		return nil, err
	}
	h := &Hub{cfg: cfg}
	h.up = slot{port: types.PortLocal, ch: b.Upstream, asm: linebuf.New(cfg.BufferSize)}

	var clash bool
	table.Each(func(p types.Port, ch transport.Channel) {
		if ch == b.Upstream {
			clash = true
		}
		h.down[p-1] = slot{
			port: p,
			ch:   ch,
			asm:  linebuf.New(cfg.BufferSize),
			tag:  string(conv.AppendTag(nil, uint64(p))),
		}
	})
	if clash {
		return nil, &errcode.E{C: errcode.PortInUse, Op: "hub.New", Msg: "upstream"}
	}
	h.router = router.New(table, b.Upstream, local, statsObserver{h})
	return h, nil
}

// Run writes one empty line upstream and then polls until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	h.writeUp("")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if h.Step() == 0 {
			h.idle()
		}
	}
}

// Step runs one iteration over upstream then ports 1..6 and returns the
// number of bytes consumed. Each channel is drained of exactly the bytes
// it reported available at the start of its turn.
func (h *Hub) Step() int {
	n := h.drain(&h.up, h.routeLine)
	for i := range h.down {
		n += h.drain(&h.down[i], h.forward)
	}
	return n
}

// Stats returns the counters for p; PortLocal selects the upstream link.
func (h *Hub) Stats(p types.Port) (types.ChannelStats, bool) {
	var s *slot
	switch {
	case p == types.PortLocal:
		s = &h.up
	case p <= types.MaxPort:
		s = &h.down[p-1]
	default:
		return types.ChannelStats{}, false
	}
	st := s.stats
	st.TxDropped = s.ch.TxDropped()
	return st, true
}

func (h *Hub) drain(s *slot, done func(s *slot, line string)) int {
	avail := s.ch.Available()
	n := 0
	for n < avail {
		b, err := s.ch.ReadByte()
		if err != nil {
			break
		}
		n++
		s.stats.RxBytes++
		line, st := s.asm.Feed(b)
		switch st {
		case linebuf.Complete:
			s.stats.Lines++
			done(s, line)
		case linebuf.Overflow:
			s.stats.Overflows++
			s.ch.WriteLine("")
			s.stats.TxLines++
			h.emit(types.HubEvent{Kind: types.EventOverflow, Port: s.port, Code: string(errcode.BufferOverflow)})
		}
	}
	return n
}

func (h *Hub) routeLine(_ *slot, line string) {
	_ = h.router.Route(line)
}

func (h *Hub) forward(s *slot, line string) {
	h.writeUp(s.tag + line)
	h.emit(types.HubEvent{Kind: types.EventForwarded, Port: s.port, Line: line})
}

func (h *Hub) writeUp(s string) {
	h.up.ch.WriteLine(s)
	h.up.stats.TxLines++
}

func (h *Hub) idle() {
	if h.cfg.IdleSleep > 0 {
		time.Sleep(h.cfg.IdleSleep)
		return
	}
	runtime.Gosched()
}

func (h *Hub) emit(ev types.HubEvent) {
	if h.cfg.Observer != nil {
		h.cfg.Observer.Event(ev)
	}
}

// statsObserver counts the writes the router made before passing its
// events on.
type statsObserver struct{ h *Hub }

func (o statsObserver) Event(ev types.HubEvent) {
	switch ev.Kind {
	case types.EventRouted:
		o.h.down[ev.Port-1].stats.TxLines++
	case types.EventRejected:
		o.h.up.stats.TxLines++
	}
	o.h.emit(ev)
}
