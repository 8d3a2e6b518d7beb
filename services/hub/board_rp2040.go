//go:build rp2040

package hub

import (
	"context"

	"serialhub-go/services/hub/internal/provider"
	"serialhub-go/types"
)

// BoardOptions configure RunBoard.
type BoardOptions struct {
	// SoftDriver runs the engines for ports 3..6; nil selects PIOSoftSerial.
	SoftDriver types.SoftSerialDriver
	// Observer is passed through to the hub. It must not print to the USB
	// console, which carries the protocol.
	Observer types.HubObserver
}

// PIOSoftSerial returns the PIO0/PIO1 UART engine for the emulated ports.
func PIOSoftSerial() types.SoftSerialDriver { return provider.NewPIOSerial() }

// softStarter is a driver whose engine runs after every port is attached.
type softStarter interface {
	Start(ctx context.Context)
}

// RunBoard opens the selected board plan and polls until ctx is done.
// Setup failures are reported before the USB link carries any protocol
// traffic.
func RunBoard(ctx context.Context, o BoardOptions) error {
	plan := provider.SelectedPlan
	drv := o.SoftDriver
	if drv == nil {
		drv = PIOSoftSerial()
	}
	b, err := provider.Open(plan, drv)
	if err != nil {
		println("[hub] board open failed:", err.Error())
		return err
	}
	if s, ok := drv.(softStarter); ok {
		s.Start(ctx)
	}
	h, err := New(Config{BufferSize: plan.BufferSize, Observer: o.Observer}, Bindings{
		Upstream: b.Upstream,
		Hardware: b.Hardware,
		Soft:     b.SoftChannels(),
	}, FanCommands(b.Fan, plan.Fan.ActiveLow, plan.Fan.Initial))
	if err != nil {
		println("[hub] bind failed:", err.Error())
		return err
	}
	return h.Run(ctx)
}
