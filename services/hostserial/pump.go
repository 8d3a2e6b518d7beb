package hostserial

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"serialhub-go/x/shmring"
)

const defaultChunk = 256

// recheck bounds a wait on a ring edge. An edge is lost when the other side
// crosses the full or empty boundary while this side is deciding to sleep.
const recheck = 5 * time.Millisecond

// Options configure a Pump.
type Options struct {
	Name string
	Log  zerolog.Logger
	// EOFIsIdle treats io.EOF from the reader as "no data yet", which is
	// how a serial device reports a read timeout.
	EOFIsIdle bool
	Chunk     int // read and write chunk; 0 selects 256
}

// Pump moves bytes between a device and a ring pair: reads from the device
// fill RX, and everything produced into TX is written to the device. Each
// ring has exactly one producer and one consumer.
type Pump struct {
	r       io.Reader
	w       io.Writer
	rx, tx  *shmring.Ring
	log     zerolog.Logger
	eofIdle bool
	chunk   int

	once   sync.Once
	failed chan struct{}
	err    error
	wg     sync.WaitGroup

	drainOnce sync.Once
	draining  chan struct{}
	wdone     chan struct{}
}

// NewPump allocates rings of rxSize and txSize bytes (powers of two).
func NewPump(r io.Reader, w io.Writer, rxSize, txSize int, o Options) *Pump {
	chunk := o.Chunk
	if chunk <= 0 {
		chunk = defaultChunk
	}
	return &Pump{
		r:        r,
		w:        w,
		rx:       shmring.New(rxSize),
		tx:       shmring.New(txSize),
		log:      o.Log.With().Str("link", o.Name).Logger(),
		eofIdle:  o.EOFIsIdle,
		chunk:    chunk,
		failed:   make(chan struct{}),
		draining: make(chan struct{}),
		wdone:    make(chan struct{}),
	}
}

// Rings returns the hub side view: the hub consumes rx and produces tx.
func (p *Pump) Rings() (rx, tx *shmring.Ring) { return p.rx, p.tx }

// Start launches the reader and writer goroutines. Both stop when ctx is
// done; the reader also stops on the first read error and the writer after
// Drain.
func (p *Pump) Start(ctx context.Context) {
	p.wg.Add(2)
	go p.readLoop(ctx)
	go p.writeLoop(ctx)
}

// Failed is closed after the first I/O error.
func (p *Pump) Failed() <-chan struct{} { return p.failed }

// Err returns the first I/O error, if any.
func (p *Pump) Err() error {
	select {
	case <-p.failed:
		return p.err
	default:
		return nil
	}
}

// Drain asks the writer to flush everything already in TX and stop, then
// waits for it. Nothing may produce into TX once Drain is called.
func (p *Pump) Drain(ctx context.Context) error {
	p.drainOnce.Do(func() { close(p.draining) })
	select {
	case <-p.wdone:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Wait blocks until both loops have returned. A reader blocked in a device
// read returns only once the device is closed.
func (p *Pump) Wait() { p.wg.Wait() }

func (p *Pump) fail(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.failed)
		if errors.Is(err, io.EOF) {
			p.log.Info().Msg("link closed")
			return
		}
		p.log.Error().Err(err).Msg("link failed")
	})
}

func (p *Pump) readLoop(ctx context.Context) {
	defer p.wg.Done()
	buf := make([]byte, p.chunk)
	for ctx.Err() == nil {
		n, err := p.r.Read(buf)
		if n > 0 && !p.push(ctx, buf[:n]) {
			return
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && p.eofIdle {
			continue
		}
		p.fail(err)
		return
	}
}

// push copies all of b into rx, waiting for the hub to make room.
func (p *Pump) push(ctx context.Context, b []byte) bool {
	for len(b) > 0 {
		n := p.rx.TryWriteFrom(b)
		b = b[n:]
		if len(b) == 0 {
			break
		}
		if p.rx.Space() > 0 {
			continue
		}
		p.log.Debug().Int("pending", len(b)).Msg("rx ring full")
		select {
		case <-p.rx.Writable():
		case <-time.After(recheck):
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (p *Pump) writeLoop(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.wdone)
	buf := make([]byte, p.chunk)
	for {
		if !p.flush(buf) {
			return
		}
		select {
		case <-p.tx.Readable():
		case <-time.After(recheck):
		case <-p.draining:
			p.flush(buf)
			return
		case <-ctx.Done():
			return
		}
	}
}

// flush writes out everything currently in tx.
func (p *Pump) flush(buf []byte) bool {
	for {
		n := p.tx.TryReadInto(buf)
		if n == 0 {
			return true
		}
		if _, err := p.w.Write(buf[:n]); err != nil {
			p.fail(err)
			return false
		}
	}
}
