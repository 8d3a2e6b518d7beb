//go:build rp2040

package main

import (
	"context"
	"time"

	"serialhub-go/services/hub"
)

func main() {
	// Allow USB CDC to enumerate before the boot line goes out.
	time.Sleep(2 * time.Second)

	err := hub.RunBoard(context.Background(), hub.BoardOptions{SoftDriver: hub.PIOSoftSerial()})

	// Only reached on a setup failure; keep reporting it so a late console
	// still sees why the hub is not running.
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for range tick.C {
		println("[main] hub stopped:", err.Error())
	}
}
