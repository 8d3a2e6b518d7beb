package provider

import (
	"context"
	"runtime"

	"serialhub-go/errcode"
	"serialhub-go/types"
	"serialhub-go/x/shmring"
	"serialhub-go/x/strconvx"
)

// serialFIFO is one emulated UART as the engine sees it: a transmit FIFO it
// fills and a receive FIFO it empties.
type serialFIFO interface {
	TxFull() bool
	Put(b byte)
	RxEmpty() bool
	Get() byte
}

type softLink struct {
	port types.Port
	fifo serialFIFO
	rx   *shmring.Ring // produced here, consumed by the hub
	tx   *shmring.Ring // produced by the hub, consumed here
}

// SoftEngine moves bytes between emulated UART FIFOs and the session rings
// of each port. It is the only producer of every rx ring and the only
// consumer of every tx ring. Attach all ports before Start.
type SoftEngine struct {
	links []softLink
}

func (e *SoftEngine) attach(s types.SoftSession, f serialFIFO) error {
	rx := shmring.Get(shmring.Handle(s.RXHandle))
	tx := shmring.Get(shmring.Handle(s.TXHandle))
	if rx == nil || tx == nil {
		return &errcode.E{C: errcode.UnboundPort, Op: "soft.attach", Msg: "port " + strconvx.Itoa(int(s.Port))}
	}
	for _, l := range e.links {
		if l.port == s.Port {
			return &errcode.E{C: errcode.PortInUse, Op: "soft.attach", Msg: "port " + strconvx.Itoa(int(s.Port))}
		}
	}
	e.links = append(e.links, softLink{port: s.Port, fifo: f, rx: rx, tx: tx})
	return nil
}

// Poll services every port once and returns the bytes moved. Received bytes
// stay in the FIFO while the rx ring is full.
func (e *SoftEngine) Poll() int {
	var one [1]byte
	n := 0
	for i := range e.links {
		l := &e.links[i]
		for !l.fifo.RxEmpty() && l.rx.Space() > 0 {
			one[0] = l.fifo.Get()
			l.rx.TryWriteFrom(one[:])
			n++
		}
		for !l.fifo.TxFull() {
			b, ok := l.tx.TryReadByte()
			if !ok {
				break
			}
			l.fifo.Put(b)
			n++
		}
	}
	return n
}

// Run polls until ctx is done, yielding whenever a pass moved nothing.
func (e *SoftEngine) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if e.Poll() == 0 {
			runtime.Gosched()
		}
	}
}

// Start runs the engine on its own goroutine.
func (e *SoftEngine) Start(ctx context.Context) { go e.Run(ctx) }
