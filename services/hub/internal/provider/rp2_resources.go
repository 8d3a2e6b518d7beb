//go:build rp2040

package provider

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"serialhub-go/errcode"
	"serialhub-go/services/hub/internal/provider/setups"
	"serialhub-go/services/hub/transport"
	"serialhub-go/types"
	"serialhub-go/x/mathx"
	"serialhub-go/x/shmring"
	"serialhub-go/x/strconvx"
	"serialhub-go/x/timex"
)

// Board holds every channel the hub needs, configured from a plan.
type Board struct {
	Plan     setups.ResourcePlan
	Upstream *transport.HostLink
	Hardware [types.HardwarePorts]transport.Channel
	Soft     [types.SoftPorts]*transport.Soft
	Sessions [types.SoftPorts]types.SoftSession
	Fan      *FanPWM
}

// Open validates plan and configures the USB link, both UARTs, the rings of
// the emulated ports and the fan PWM. Each emulated port is attached to drv;
// drv may be nil, in which case those ports stay silent.
func Open(plan setups.ResourcePlan, drv types.SoftSerialDriver) (*Board, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	b := &Board{Plan: plan}

	// USB CDC is the protocol channel.
	b.Upstream = transport.NewHostLink(machine.Serial, transport.Options{Name: "usb", Newline: plan.Host.Newline})

	for _, u := range plan.UART {
		hw := uartByID(u.ID)
		if hw == nil {
			return nil, &errcode.E{C: errcode.UnknownBus, Op: "provider.Open", Msg: u.ID}
		}
		// Defaults inside uartx apply if Baud is zero.
		if err := hw.Configure(uartx.UARTConfig{
			BaudRate: u.Baud,
			TX:       machine.Pin(u.TX),
			RX:       machine.Pin(u.RX),
		}); err != nil {
			return nil, &errcode.E{C: errcode.Error, Op: "provider.Open", Msg: u.ID, Err: err}
		}
		if u.Format != (types.SerialFormat{}) {
			if err := hw.SetFormat(dataBits(u.Format), stopBits(u.Format), uartParity(u.Format.Parity)); err != nil {
				return nil, &errcode.E{C: errcode.InvalidParams, Op: "provider.Open", Msg: u.ID, Err: err}
			}
		}
		b.Hardware[u.Port-1] = transport.NewUART(hw, transport.Options{Name: u.ID, Newline: u.Newline})
	}

	for _, s := range plan.Soft {
		rxN, txN := s.Sizes()
		rxH, rx := shmring.NewRegistered(rxN)
		txH, tx := shmring.NewRegistered(txN)
		i := int(s.Port) - 1 - types.HardwarePorts
		b.Soft[i] = transport.NewSoft(rx, tx, transport.Options{
			Name:    "pio" + strconvx.Itoa(int(s.Port)),
			Newline: s.Newline,
		})
		b.Sessions[i] = types.SoftSession{Port: s.Port, RXHandle: uint32(rxH), TXHandle: uint32(txH)}
		if drv == nil {
			continue
		}
		if err := drv.Attach(b.Sessions[i], types.SoftSerialConfig{TX: s.TX, RX: s.RX, Baud: s.Baud, Format: s.Format}); err != nil {
			return nil, &errcode.E{C: errcode.Error, Op: "provider.Open", Msg: "pio" + strconvx.Itoa(int(s.Port)), Err: err}
		}
	}

	fan, err := openFan(plan.Fan)
	if err != nil {
		return nil, err
	}
	b.Fan = fan
	return b, nil
}

// SoftChannels returns the emulated channels as the routing table wants them.
func (b *Board) SoftChannels() (out [types.SoftPorts]transport.Channel) {
	for i, s := range b.Soft {
		out[i] = s
	}
	return out
}

func uartByID(id string) *uartx.UART {
	switch id {
	case "uart0":
		return uartx.UART0
	case "uart1":
		return uartx.UART1
	}
	return nil
}

func dataBits(f types.SerialFormat) uint8 {
	if f.DataBits == 0 {
		return 8
	}
	return f.DataBits
}

func stopBits(f types.SerialFormat) uint8 {
	if f.StopBits == 0 {
		return 1
	}
	return f.StopBits
}

func uartParity(p types.Parity) uartx.UARTParity {
	switch p {
	case types.ParityEven:
		return uartx.ParityEven
	case types.ParityOdd:
		return uartx.ParityOdd
	default:
		return uartx.ParityNone
	}
}

// -----------------------------------------------------------------------------
// Fan PWM (RP2040)
// -----------------------------------------------------------------------------

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// Select controller handle for a given slice number (0..7).
func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// FanPWM drives one PWM channel in physical percent.
type FanPWM struct {
	ctrl  pwmCtrl
	chIdx uint8  // 0 => A, 1 => B
	top   uint16 // logical resolution
	hwTop uint32 // controller.Top() after Configure
}

func openFan(p setups.FanPlan) (*FanPWM, error) {
	// GPIO n sits on slice (n>>1)&7, channel n&1.
	ctrl := pwmGroupBySlice(uint8(p.Pin>>1) & 7)
	if err := ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(p.FreqHz)}); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "provider.openFan", Err: err}
	}
	machine.Pin(p.Pin).Configure(machine.PinConfig{Mode: machine.PinPWM})
	top := p.Top
	if top == 0 {
		top = 100
	}
	return &FanPWM{ctrl: ctrl, chIdx: uint8(p.Pin & 1), top: top, hwTop: ctrl.Top()}, nil
}

// SetDuty implements the fan sink; percent above 100 saturates.
func (f *FanPWM) SetDuty(percent uint8) {
	logical := mathx.Scale(uint32(percent), 100, uint32(f.top))
	f.ctrl.Set(f.chIdx, mathx.Scale(logical, uint32(f.top), f.hwTop))
}
