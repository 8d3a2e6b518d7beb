//go:build rp2040

package provider

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"serialhub-go/errcode"
	"serialhub-go/types"
)

// 8N1 UART programs at eight PIO clocks per bit. Jump targets are relative
// to the program start; AddProgram relocates them.
var (
	uartTxProgram = []uint16{
		0x9fa0, //  0: pull   block   side 1 [7]
		0xf727, //  1: set    x, 7    side 0 [7]
		0x6001, //  2: out    pins, 1
		0x0642, //  3: jmp    x--, 2         [6]
	}
	uartRxProgram = []uint16{
		0x2020, //  0: wait   0 pin, 0
		0xea27, //  1: set    x, 7           [10]
		0x4001, //  2: in     pins, 1
		0x0642, //  3: jmp    x--, 2         [6]
		0x00c8, //  4: jmp    pin, 8
		0xc014, //  5: irq    nowait 4 rel
		0x20a0, //  6: wait   1 pin, 0
		0x0000, //  7: jmp    0
		0x8020, //  8: push   block
	}
)

const clocksPerBit = 8

type pioBlock struct {
	hw       *pio.PIO
	mode     machine.PinMode
	loaded   bool
	txOffset uint8
	rxOffset uint8
}

// PIOSerial emulates one UART per port on a pair of state machines. The
// eight state machines of PIO0 and PIO1 cover four ports.
type PIOSerial struct {
	SoftEngine
	blocks [2]pioBlock
}

func NewPIOSerial() *PIOSerial {
	return &PIOSerial{blocks: [2]pioBlock{
		{hw: pio.PIO0, mode: machine.PinPIO0},
		{hw: pio.PIO1, mode: machine.PinPIO1},
	}}
}

// Attach claims a TX and an RX state machine, starts both programs on the
// configured pins and hands the FIFOs to the engine. Only 8N1 is supported.
func (p *PIOSerial) Attach(s types.SoftSession, cfg types.SoftSerialConfig) error {
	if dataBits(cfg.Format) != 8 || stopBits(cfg.Format) != 1 || cfg.Format.Parity != types.ParityNone {
		return &errcode.E{C: errcode.Unsupported, Op: "pio.Attach", Msg: "format"}
	}
	if cfg.Baud == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "pio.Attach", Msg: "baud"}
	}
	whole, frac, err := pio.ClkDivFromFrequency(cfg.Baud*clocksPerBit, machine.CPUFrequency())
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "pio.Attach", Msg: "baud", Err: err}
	}
	for i := range p.blocks {
		b := &p.blocks[i]
		if err := b.load(); err != nil {
			return &errcode.E{C: errcode.Error, Op: "pio.Attach", Err: err}
		}
		tx, err := b.hw.ClaimStateMachine()
		if err != nil {
			continue
		}
		rx, err := b.hw.ClaimStateMachine()
		if err != nil {
			return &errcode.E{C: errcode.Error, Op: "pio.Attach", Msg: "rx state machine", Err: err}
		}
		b.startTx(tx, machine.Pin(cfg.TX), whole, frac)
		b.startRx(rx, machine.Pin(cfg.RX), whole, frac)
		return p.attach(s, pioFIFO{tx: tx, rx: rx})
	}
	return &errcode.E{C: errcode.Error, Op: "pio.Attach", Msg: "no free state machine"}
}

func (b *pioBlock) load() error {
	if b.loaded {
		return nil
	}
	off, err := b.hw.AddProgram(uartTxProgram, -1)
	if err != nil {
		return err
	}
	b.txOffset = off
	if off, err = b.hw.AddProgram(uartRxProgram, -1); err != nil {
		return err
	}
	b.rxOffset = off
	b.loaded = true
	return nil
}

func (b *pioBlock) startTx(sm pio.StateMachine, pin machine.Pin, whole uint16, frac uint8) {
	// Idle high before the pin is handed to the PIO.
	sm.SetPinsConsecutive(pin, 1, true)
	sm.SetPindirsConsecutive(pin, 1, true)
	pin.Configure(machine.PinConfig{Mode: b.mode})

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(b.txOffset, b.txOffset+uint8(len(uartTxProgram))-1)
	cfg.SetSidesetParams(2, true, false)
	cfg.SetOutShift(true, false, 32)
	cfg.SetOutPins(pin, 1)
	cfg.SetSidesetPins(pin)
	cfg.SetFIFOJoin(pio.FifoJoinTx)
	cfg.SetClkDivIntFrac(whole, frac)
	sm.Init(b.txOffset, cfg)
	sm.SetEnabled(true)
}

func (b *pioBlock) startRx(sm pio.StateMachine, pin machine.Pin, whole uint16, frac uint8) {
	sm.SetPindirsConsecutive(pin, 1, false)
	pin.Configure(machine.PinConfig{Mode: b.mode})

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(b.rxOffset, b.rxOffset+uint8(len(uartRxProgram))-1)
	cfg.SetInPins(pin)
	cfg.SetJmpPin(pin)
	cfg.SetInShift(true, false, 32)
	cfg.SetFIFOJoin(pio.FifoJoinRx)
	cfg.SetClkDivIntFrac(whole, frac)
	sm.Init(b.rxOffset, cfg)
	sm.SetEnabled(true)
}

type pioFIFO struct{ tx, rx pio.StateMachine }

func (f pioFIFO) TxFull() bool  { return f.tx.IsTxFIFOFull() }
func (f pioFIFO) Put(b byte)    { f.tx.TxPut(uint32(b)) }
func (f pioFIFO) RxEmpty() bool { return f.rx.IsRxFIFOEmpty() }

// Get returns the oldest received byte. The ISR shifts right, so the eight
// data bits land in the top byte of the word.
func (f pioFIFO) Get() byte { return byte(f.rx.RxGet() >> 24) }
