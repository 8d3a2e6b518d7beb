// Package router turns upstream command lines into channel writes.
package router

import (
	"strings"

	"serialhub-go/errcode"
	"serialhub-go/services/hub/internal/routing"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/strconvx"
)

// LocalHandler runs port 0 payloads.
type LocalHandler interface {
	HandleLocal(payload string) error
}

// Command is one parsed "<port> <payload>" line.
type Command struct {
	Port    types.Port
	Payload string
}

// Parse splits line at the first space. The payload is kept verbatim.
// A missing space or a port token that is not an unsigned decimal is
// MalformedCommand; a port above MaxPort is PortOutOfRange.
func Parse(line string) (Command, error) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return Command{}, errcode.MalformedCommand
	}
	u, err := strconvx.ParseUint(line[:i], 10, 64)
	if err != nil {
		return Command{}, errcode.MalformedCommand
	}
	if u > uint64(types.MaxPort) {
		return Command{}, errcode.PortOutOfRange
	}
	return Command{Port: types.Port(u), Payload: line[i+1:]}, nil
}

// Router forwards parsed commands. Every rejection is acknowledged with one
// empty line on the upstream channel; nothing waits for a reply.
type Router struct {
	table *routing.Table
	up    transport.Channel
	local LocalHandler
	obs   types.HubObserver
}

// New builds a router writing acknowledgements to up. local and obs may be nil.
func New(table *routing.Table, up transport.Channel, local LocalHandler, obs types.HubObserver) *Router {
	return &Router{table: table, up: up, local: local, obs: obs}
}

// Route handles one completed upstream line. The returned error is for
// observation only; the acknowledgement has already been sent.
func (r *Router) Route(line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return r.reject(types.PortLocal, line, err)
	}
	if cmd.Port == types.PortLocal {
		if r.local == nil {
			return r.reject(cmd.Port, cmd.Payload, errcode.UnknownCommand)
		}
		if err := r.local.HandleLocal(cmd.Payload); err != nil {
			return r.reject(cmd.Port, cmd.Payload, err)
		}
		r.emit(types.HubEvent{Kind: types.EventLocal, Port: cmd.Port, Line: cmd.Payload})
		return nil
	}
	ch, err := r.table.Lookup(cmd.Port)
	if err != nil {
		return r.reject(cmd.Port, cmd.Payload, err)
	}
	ch.WriteLine(cmd.Payload)
	r.emit(types.HubEvent{Kind: types.EventRouted, Port: cmd.Port, Line: cmd.Payload})
	return nil
}

func (r *Router) reject(p types.Port, line string, err error) error {
	r.up.WriteLine("")
	r.emit(types.HubEvent{Kind: types.EventRejected, Port: p, Line: line, Code: string(errcode.Of(err))})
	return err
}

func (r *Router) emit(ev types.HubEvent) {
	if r.obs != nil {
		r.obs.Event(ev)
	}
}
