package hub

import (
	"context"
	"strings"
	"testing"
	"time"

	"serialhub-go/errcode"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/shmring"
)

// endpoint is the far side of one ring-backed channel: in feeds the hub,
// out collects what the hub wrote.
type endpoint struct {
	in, out *shmring.Ring
}

func (e endpoint) send(s string) { e.in.TryWriteFrom([]byte(s)) }

func (e endpoint) recv() string {
	buf := make([]byte, e.out.Available())
	n := e.out.TryReadInto(buf)
	return string(buf[:n])
}

type rig struct {
	h    *Hub
	host endpoint
	port [types.Downstream + 1]endpoint // index 0 unused
	obs  *recObserver
	sink *recSink
}

type recObserver struct{ evs []types.HubEvent }

func (o *recObserver) Event(ev types.HubEvent) { o.evs = append(o.evs, ev) }

func (o *recObserver) kinds() []types.EventKind {
	out := make([]types.EventKind, len(o.evs))
	for i, ev := range o.evs {
		out[i] = ev.Kind
	}
	return out
}

type recSink struct{ duty []uint8 }

func (s *recSink) SetDuty(p uint8) { s.duty = append(s.duty, p) }

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	r := &rig{obs: &recObserver{}, sink: &recSink{}}
	r.host = endpoint{in: shmring.New(256), out: shmring.New(1024)}

	var b Bindings
	b.Upstream = transport.NewHostLink(transport.NewRingStream(r.host.in, r.host.out), transport.Options{})
	for p := 1; p <= types.Downstream; p++ {
		e := endpoint{in: shmring.New(128), out: shmring.New(128)}
		r.port[p] = e
		ch := transport.NewSoft(e.in, e.out, transport.Options{})
		if p <= types.HardwarePorts {
			b.Hardware[p-1] = ch
		} else {
			b.Soft[p-1-types.HardwarePorts] = ch
		}
	}
	if cfg.Observer == nil {
		cfg.Observer = r.obs
	}
	h, err := New(cfg, b, FanCommands(r.sink, true, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.h = h
	return r
}

// settle steps until nothing is consumed.
func (r *rig) settle() {
	for i := 0; i < 16 && r.h.Step() > 0; i++ {
	}
}

func TestRun_WritesBootLineAndStops(t *testing.T) {
	r := newRig(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.h.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v", err)
	}
	if got := r.host.recv(); got != "\n" {
		t.Fatalf("boot output %q", got)
	}
}

func TestRun_IdlesUntilDeadline(t *testing.T) {
	r := newRig(t, Config{IdleSleep: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.h.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run = %v", err)
	}
}

func TestStep_RoundTripPing(t *testing.T) {
	r := newRig(t, Config{})
	r.host.send("5 ping\n")
	if n := r.h.Step(); n != 7 {
		t.Fatalf("Step consumed %d", n)
	}
	if got := r.port[5].recv(); got != "ping\n" {
		t.Fatalf("port 5 got %q", got)
	}
	// the device echoes its input
	r.port[5].send("ping\n")
	r.settle()
	if got := r.host.recv(); got != "5 ping\n" {
		t.Fatalf("upstream got %q", got)
	}
	for p := 1; p <= types.Downstream; p++ {
		if p != 5 && r.port[p].out.Available() != 0 {
			t.Fatalf("port %d leaked %q", p, r.port[p].recv())
		}
	}
}

func TestStep_TagsEveryPort(t *testing.T) {
	r := newRig(t, Config{})
	for p := 1; p <= types.Downstream; p++ {
		r.port[p].send("hi\n")
	}
	r.settle()
	want := "1 hi\n2 hi\n3 hi\n4 hi\n5 hi\n6 hi\n"
	if got := r.host.recv(); got != want {
		t.Fatalf("upstream %q, want %q", got, want)
	}
}

func TestStep_PerPortOrder(t *testing.T) {
	r := newRig(t, Config{})
	r.port[3].send("a\nb\n")
	r.port[6].send("x\n")
	r.port[3].send("c\n")
	r.settle()
	var p3, p6 []string
	for _, l := range strings.Split(strings.TrimSuffix(r.host.recv(), "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "3 "):
			p3 = append(p3, l)
		case strings.HasPrefix(l, "6 "):
			p6 = append(p6, l)
		}
	}
	if strings.Join(p3, ",") != "3 a,3 b,3 c" || strings.Join(p6, ",") != "6 x" {
		t.Fatalf("order: %v %v", p3, p6)
	}
}

func TestStep_UpstreamCommandsInOrder(t *testing.T) {
	r := newRig(t, Config{})
	r.host.send("2 one\n2 two\n4 three\n2 four\n")
	r.settle()
	if got := r.port[2].recv(); got != "one\ntwo\nfour\n" {
		t.Fatalf("port 2 got %q", got)
	}
	if got := r.port[4].recv(); got != "three\n" {
		t.Fatalf("port 4 got %q", got)
	}
}

func TestStep_DownstreamOverflowAcksSameChannel(t *testing.T) {
	r := newRig(t, Config{})
	r.port[4].send(strings.Repeat("x", 40) + "\nok\n")
	r.settle()
	if got := r.port[4].recv(); got != "\n" {
		t.Fatalf("port 4 ack %q", got)
	}
	if got := r.host.recv(); got != "4 xxxxxxxx\n4 ok\n" {
		t.Fatalf("upstream %q", got)
	}
	st, _ := r.h.Stats(4)
	if st.Overflows != 1 || st.Lines != 2 || st.RxBytes != 44 || st.TxLines != 1 {
		t.Fatalf("stats %+v", st)
	}
	ev := r.obs.evs[0]
	if ev.Kind != types.EventOverflow || ev.Port != 4 || ev.Code != string(errcode.BufferOverflow) {
		t.Fatalf("event %+v", ev)
	}
}

func TestStep_UpstreamOverflowAcksUpstream(t *testing.T) {
	r := newRig(t, Config{})
	r.host.send("3 " + strings.Repeat("y", 31) + "\n")
	r.settle()
	// overflow ack, then the one-byte tail is rejected as malformed
	if got := r.host.recv(); got != "\n\n" {
		t.Fatalf("upstream %q", got)
	}
	if r.port[3].out.Available() != 0 {
		t.Fatalf("port 3 written")
	}
	st, _ := r.h.Stats(types.PortLocal)
	if st.Overflows != 1 || st.TxLines != 2 {
		t.Fatalf("stats %+v", st)
	}
}

func TestStep_SmallBuffer(t *testing.T) {
	r := newRig(t, Config{BufferSize: 8})
	r.port[1].send("1234567\n1234567890\n")
	r.settle()
	if got := r.host.recv(); got != "1 1234567\n1 90\n" {
		t.Fatalf("upstream %q", got)
	}
	if got := r.port[1].recv(); got != "\n" {
		t.Fatalf("port 1 acks %q", got)
	}
}

func TestStep_LocalFanAndRejections(t *testing.T) {
	r := newRig(t, Config{})
	r.host.send("0 fan 30\n0 fan 150\n9 test\nnospace\n")
	r.settle()
	if got := r.sink.duty; len(got) != 2 || got[0] != 100 || got[1] != 70 {
		t.Fatalf("fan writes %v", got)
	}
	if got := r.host.recv(); got != "\n\n\n" {
		t.Fatalf("upstream %q", got)
	}
	for p := 1; p <= types.Downstream; p++ {
		if r.port[p].out.Available() != 0 {
			t.Fatalf("port %d written", p)
		}
	}
	want := []types.EventKind{types.EventLocal, types.EventRejected, types.EventRejected, types.EventRejected}
	got := r.obs.kinds()
	if len(got) != len(want) {
		t.Fatalf("events %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v, want %v", got, want)
		}
	}
}

func TestStats(t *testing.T) {
	r := newRig(t, Config{})
	r.host.send("3 a\n3 b\n")
	r.port[3].send("c\n")
	r.settle()

	up, ok := r.h.Stats(types.PortLocal)
	if !ok || up.RxBytes != 8 || up.Lines != 2 || up.TxLines != 1 {
		t.Fatalf("upstream %+v", up)
	}
	p3, _ := r.h.Stats(3)
	if p3.RxBytes != 2 || p3.Lines != 1 || p3.TxLines != 2 || p3.TxDropped != 0 {
		t.Fatalf("port 3 %+v", p3)
	}
	if _, ok := r.h.Stats(7); ok {
		t.Fatalf("port 7 reported")
	}
}

func TestStats_TxDropped(t *testing.T) {
	r := newRig(t, Config{})
	// port 6 tx ring holds 128 bytes; fill it and keep sending
	for i := 0; i < 10; i++ {
		r.host.send("6 " + strings.Repeat("z", 20) + "\n")
		r.settle()
	}
	st, _ := r.h.Stats(6)
	if st.TxLines != 10 || st.TxDropped != 4 {
		t.Fatalf("stats %+v", st)
	}
}

func TestNew_Bindings(t *testing.T) {
	ring := func() *shmring.Ring { return shmring.New(16) }
	soft := func() transport.Channel { return transport.NewSoft(ring(), ring(), transport.Options{}) }
	full := func() Bindings {
		var b Bindings
		b.Upstream = soft()
		for i := range b.Hardware {
			b.Hardware[i] = soft()
		}
		for i := range b.Soft {
			b.Soft[i] = soft()
		}
		return b
	}

	b := full()
	b.Upstream = nil
	if _, err := New(Config{}, b, nil); errcode.Of(err) != errcode.UnboundPort {
		t.Fatalf("nil upstream: %v", err)
	}
	b = full()
	b.Soft[2] = nil
	if _, err := New(Config{}, b, nil); errcode.Of(err) != errcode.UnboundPort {
		t.Fatalf("nil soft: %v", err)
	}
	b = full()
	b.Hardware[1] = b.Upstream
	if _, err := New(Config{}, b, nil); errcode.Of(err) != errcode.PortInUse {
		t.Fatalf("shared upstream: %v", err)
	}
	if _, err := New(Config{}, full(), nil); err != nil {
		t.Fatalf("full: %v", err)
	}
}
