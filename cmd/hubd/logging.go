package main

import (
	"github.com/rs/zerolog"

	"serialhub-go/types"
)

// logObserver reports hub decisions. Rejections and overflows are warnings;
// the rest is debug traffic.
type logObserver struct{ log zerolog.Logger }

func (o logObserver) Event(ev types.HubEvent) {
	e := o.log.Debug()
	if ev.Kind == types.EventRejected || ev.Kind == types.EventOverflow {
		e = o.log.Warn()
	}
	e = e.Str("event", ev.Kind.String()).Uint8("port", uint8(ev.Port))
	if ev.Line != "" {
		e = e.Str("line", ev.Line)
	}
	if ev.Code != "" {
		e = e.Str("code", ev.Code)
	}
	e.Msg("hub")
}

// logFan stands in for the fan PWM on the host.
type logFan struct{ log zerolog.Logger }

func (f logFan) SetDuty(percent uint8) {
	f.log.Info().Uint8("physical", percent).Msg("fan duty")
}
