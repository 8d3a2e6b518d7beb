package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"serialhub-go/services/config"
	"serialhub-go/services/hostserial"
	"serialhub-go/services/hub"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/shmring"
	"serialhub-go/x/strx"
)

// stdio is the upstream link when no upstream device is configured.
type stdio struct {
	in  io.Reader
	out io.Writer
}

// run opens every configured device, binds the hub and polls until ctx is
// done or a link fails. End of input on stdio is a clean stop.
func run(ctx context.Context, cfg *config.Config, std stdio, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		pumps   []*hostserial.Pump
		closers []io.Closer
	)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	open := func(name string, d hostserial.Device) (*hostserial.Pump, error) {
		dev, err := hostserial.Open(d)
		if err != nil {
			return nil, err
		}
		closers = append(closers, dev)
		p := hostserial.NewPump(dev, dev, cfg.RXRing, cfg.TXRing, hostserial.Options{Name: name, Log: log, EOFIsIdle: true})
		pumps = append(pumps, p)
		return p, nil
	}

	var b hub.Bindings

	var up *hostserial.Pump
	if cfg.Upstream.Device == "" {
		up = hostserial.NewPump(std.in, std.out, cfg.RXRing, cfg.TXRing, hostserial.Options{Name: "upstream", Log: log})
		pumps = append(pumps, up)
	} else {
		p, err := open("upstream", hostserial.Device{Name: cfg.Upstream.Device, Baud: cfg.Upstream.Baud})
		if err != nil {
			return err
		}
		up = p
	}
	b.Upstream = transport.NewHostLink(transport.NewRingStream(up.Rings()), transport.Options{Name: "upstream", Newline: cfg.Newline})

	for n := 1; n <= types.Downstream; n++ {
		port := portOf(n)
		var ch transport.Channel
		if pc, ok := cfg.PortFor(port); ok {
			p, err := open(pc.Device, hostserial.Device{Name: pc.Device, Baud: pc.Baud, Format: pc.SerialFormat})
			if err != nil {
				return fmt.Errorf("port %d: %w", n, err)
			}
			rx, tx := p.Rings()
			ch = transport.NewSoft(rx, tx, transport.Options{Name: pc.Device, Newline: pc.Newline})
			log.Info().Int("port", n).Str("device", pc.Device).Int("baud", pc.Baud).Msg("port bound")
		} else {
			ch = transport.NewSoft(shmring.New(cfg.RXRing), shmring.New(cfg.TXRing), transport.Options{Name: "idle", Newline: cfg.Newline})
			log.Debug().Int("port", n).Msg("port idle")
		}
		if n <= types.HardwarePorts {
			b.Hardware[n-1] = ch
		} else {
			b.Soft[n-1-types.HardwarePorts] = ch
		}
	}

	h, err := hub.New(hub.Config{
		BufferSize: cfg.BufferSize,
		IdleSleep:  cfg.IdleSleep,
		Observer:   logObserver{log: log},
	}, b, hub.FanCommands(logFan{log: log}, cfg.Fan.ActiveLow, cfg.Fan.Initial))
	if err != nil {
		return err
	}

	for _, p := range pumps {
		p.Start(ctx)
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	done := make(chan error, 1)
	go func() { done <- h.Run(hubCtx) }()
	log.Info().Str("upstream", strx.Coalesce(cfg.Upstream.Device, "stdio")).Msg("hub running")

	select {
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case err := <-firstFailure(ctx, pumps):
		stopHub()
		<-done
		if !errors.Is(up.Err(), io.EOF) {
			return err
		}
		// End of input: answer every command already read, then let the
		// upstream writer flush before the pumps stop.
		urx, _ := up.Rings()
		settle(h, urx)
		flushCtx, cancelFlush := context.WithTimeout(ctx, flushTimeout)
		defer cancelFlush()
		if err := up.Drain(flushCtx); err != nil {
			return fmt.Errorf("flush upstream: %w", err)
		}
		log.Info().Msg("upstream closed")
		return nil
	}
}

const (
	// flushTimeout bounds the final upstream write after end of input.
	flushTimeout = 5 * time.Second
	// settleSteps caps the iterations spent on downstream traffic once the
	// upstream input is consumed.
	settleSteps = 64
)

// settle steps h until the upstream ring is empty, then until one iteration
// finds nothing to do. The upstream reader has stopped, so the first loop
// terminates; a chatty device cannot hold the second open.
func settle(h *hub.Hub, upstream *shmring.Ring) {
	for upstream.Available() > 0 {
		h.Step()
	}
	for i := 0; i < settleSteps && h.Step() > 0; i++ {
	}
}

// firstFailure delivers the error of the first pump to fail.
func firstFailure(ctx context.Context, pumps []*hostserial.Pump) <-chan error {
	out := make(chan error, len(pumps))
	for _, p := range pumps {
		go func() {
			select {
			case <-p.Failed():
				out <- p.Err()
			case <-ctx.Done():
			}
		}()
	}
	return out
}

func portOf(n int) types.Port { return types.Port(n) }

func formatOf(p config.Port) string {
	bits, stop := p.DataBits, p.StopBits
	if bits == 0 {
		bits = 8
	}
	if stop == 0 {
		stop = 1
	}
	return fmt.Sprintf("%d%c%d", bits, "NEO"[p.SerialFormat.Parity], stop)
}
