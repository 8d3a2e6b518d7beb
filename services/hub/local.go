package hub

import "serialhub-go/services/hub/internal/local"

// DutySink receives the physical fan duty in percent.
type DutySink = local.DutySink

// FanCommands returns the port 0 handler for "fan <0-100>". The initial
// logical duty is applied to sink before it returns.
func FanCommands(sink DutySink, activeLow bool, initial uint8) LocalHandler {
	return local.NewCommands().WithFan(local.NewFan(sink, activeLow, initial))
}
