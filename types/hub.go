package types

// ------------------------
// Ports
// ------------------------

// Port is the protocol-level channel identifier used on the wire.
type Port uint8

const (
	// PortLocal is handled by the hub itself and never forwarded.
	PortLocal Port = 0
	// FirstPort..MaxPort are the routable downstream channels.
	FirstPort Port = 1
	MaxPort   Port = 6

	// Downstream is the number of routable ports.
	Downstream = int(MaxPort)
	// HardwarePorts are bound to UARTs; the rest are emulated.
	HardwarePorts = 2
	SoftPorts     = Downstream - HardwarePorts
)

// DefaultBufferSize is the line capacity of every channel.
const DefaultBufferSize = 32

// ChannelStats are per-port counters kept by the poll loop.
type ChannelStats struct {
	RxBytes   uint32 // bytes consumed from the channel
	Lines     uint32 // completed lines assembled
	Overflows uint32 // lines discarded for exceeding the buffer
	TxLines   uint32 // lines written to the channel
	TxDropped uint32 // lines the transport could not accept
}

// ------------------------
// Observation
// ------------------------

type EventKind uint8

const (
	EventForwarded EventKind = iota + 1 // downstream line tagged upstream
	EventRouted                         // upstream command written downstream
	EventLocal                          // port 0 command applied
	EventRejected                       // command acknowledged with an empty line
	EventOverflow                       // buffer overflow on Port
)

func (k EventKind) String() string {
	switch k {
	case EventForwarded:
		return "forwarded"
	case EventRouted:
		return "routed"
	case EventLocal:
		return "local"
	case EventRejected:
		return "rejected"
	case EventOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// HubEvent is reported to a HubObserver. Line is the payload concerned,
// Code is set for EventRejected and EventOverflow.
type HubEvent struct {
	Kind EventKind
	Port Port
	Line string
	Code string
}

// HubObserver receives events synchronously from the poll loop and must not block.
type HubObserver interface {
	Event(ev HubEvent)
}
