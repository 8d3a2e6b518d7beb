// Package local interprets port 0 payloads of the form "<name> <value>".
package local

import (
	"strings"

	"serialhub-go/errcode"
	"serialhub-go/x/mathx"
	"serialhub-go/x/strconvx"
)

// Handler applies the argument of one named local command.
type Handler func(arg string) error

// Commands dispatches local payloads by name. It never touches a transport.
type Commands struct {
	handlers map[string]Handler
}

func NewCommands() *Commands {
	return &Commands{handlers: map[string]Handler{}}
}

// Register binds name; a later registration replaces an earlier one.
func (c *Commands) Register(name string, h Handler) { c.handlers[name] = h }

// WithFan registers "fan <0-100>".
func (c *Commands) WithFan(f *Fan) *Commands {
	c.Register("fan", func(arg string) error {
		v, err := strconvx.Atoi(arg)
		if err != nil {
			return errcode.InvalidParams
		}
		if !mathx.Between(v, 0, MaxDuty) {
			return errcode.ValueOutOfRange
		}
		f.Set(uint8(v))
		return nil
	})
	return c
}

// HandleLocal parses "<name> <value>" and runs the named handler. Any error
// means no state changed.
func (c *Commands) HandleLocal(payload string) error {
	i := strings.IndexByte(payload, ' ')
	if i < 0 {
		return errcode.MalformedCommand
	}
	h, ok := c.handlers[payload[:i]]
	if !ok {
		return errcode.UnknownCommand
	}
	return h(payload[i+1:])
}
