// Package routing binds logical ports to transport channels.
package routing

import (
	"serialhub-go/errcode"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/strconvx"
)

// Table is the fixed port map: 1..2 hardware UARTs, 3..6 emulated ports in
// declared order, 0 local. It is read-only after New.
type Table struct {
	ports [types.Downstream + 1]transport.Channel // index 0 unused
}

// New binds hw to ports 1..2 and soft to ports 3..6. Every port must be
// bound, and no channel may serve two ports.
func New(hw [types.HardwarePorts]transport.Channel, soft [types.SoftPorts]transport.Channel) (*Table, error) {
	t := &Table{}
	p := types.FirstPort
	for _, ch := range append(hw[:], soft[:]...) {
		if err := t.bind(p, ch); err != nil {
			return nil, err
		}
		p++
	}
	return t, nil
}

func (t *Table) bind(p types.Port, ch transport.Channel) error {
	if ch == nil {
		return &errcode.E{C: errcode.UnboundPort, Op: "routing.New", Msg: portMsg(p)}
	}
	for q := types.FirstPort; q < p; q++ {
		if t.ports[q] == ch {
			return &errcode.E{C: errcode.PortInUse, Op: "routing.New", Msg: portMsg(p)}
		}
	}
	t.ports[p] = ch
	return nil
}

// Lookup resolves a downstream port.
func (t *Table) Lookup(p types.Port) (transport.Channel, error) {
	switch {
	case p == types.PortLocal:
		return nil, errcode.LocalPort
	case p > types.MaxPort:
		return nil, errcode.PortOutOfRange
	}
	return t.ports[p], nil
}

// Each visits ports 1..6 in order.
func (t *Table) Each(fn func(p types.Port, ch transport.Channel)) {
	for p := types.FirstPort; p <= types.MaxPort; p++ {
		fn(p, t.ports[p])
	}
}

func portMsg(p types.Port) string { return "port " + strconvx.Itoa(int(p)) }
