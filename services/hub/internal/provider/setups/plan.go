package setups

import (
	"serialhub-go/errcode"
	"serialhub-go/types"
	"serialhub-go/x/mathx"
	"serialhub-go/x/strconvx"
)

// Default ring sizes for emulated ports.
const (
	DefaultSoftRX = 256
	DefaultSoftTX = 256
)

// ResourcePlan specifies wiring and operating parameters chosen by a setup.
// The provider consumes it to bring up every channel the hub routes.
type ResourcePlan struct {
	Host       HostPlan
	UART       []UARTPlan // ports 1..2
	Soft       []SoftPlan // ports 3..6
	Fan        FanPlan
	BufferSize int // 0 selects the hub default
}

// HostPlan describes the upstream USB CDC link.
type HostPlan struct {
	Newline string // empty selects "\n"
}

type UARTPlan struct {
	ID      string // "uart0" or "uart1"
	Port    types.Port
	TX      int    // GPIO number
	RX      int    // GPIO number
	Baud    uint32 // 0 leaves the driver default
	Format  types.SerialFormat
	Newline string
}

type SoftPlan struct {
	Port    types.Port
	TX      int
	RX      int
	Baud    uint32
	Format  types.SerialFormat
	Newline string
	RXSize  int // ring bytes, power of two; 0 selects DefaultSoftRX
	TXSize  int // ring bytes, power of two; 0 selects DefaultSoftTX
}

type FanPlan struct {
	Pin       int
	FreqHz    uint32
	Top       uint16 // logical PWM range
	ActiveLow bool
	Initial   uint8 // logical duty at boot
}

// Sizes returns the ring sizes with defaults applied.
func (s SoftPlan) Sizes() (rx, tx int) {
	rx, tx = s.RXSize, s.TXSize
	if rx == 0 {
		rx = DefaultSoftRX
	}
	if tx == 0 {
		tx = DefaultSoftTX
	}
	return rx, tx
}

// Validate checks that ports 1..2 are UARTs, 3..6 are emulated, each is
// bound once, and no GPIO is claimed twice.
func (p ResourcePlan) Validate() error {
	var bound [types.Downstream + 1]bool
	pins := map[int]string{}

	claim := func(pin int, who string) error {
		if pin < 0 {
			return &errcode.E{C: errcode.UnknownPin, Op: "plan", Msg: who}
		}
		if prev, ok := pins[pin]; ok {
			return &errcode.E{C: errcode.PinInUse, Op: "plan", Msg: who + " GP" + strconvx.Itoa(pin) + " held by " + prev}
		}
		pins[pin] = who
		return nil
	}
	bind := func(port types.Port, lo, hi types.Port) error {
		if !mathx.Between(port, lo, hi) {
			return &errcode.E{C: errcode.InvalidParams, Op: "plan", Msg: portName(port)}
		}
		if bound[port] {
			return &errcode.E{C: errcode.PortInUse, Op: "plan", Msg: portName(port)}
		}
		bound[port] = true
		return nil
	}

	for _, u := range p.UART {
		if u.ID != "uart0" && u.ID != "uart1" {
			return &errcode.E{C: errcode.UnknownBus, Op: "plan", Msg: u.ID}
		}
		if err := bind(u.Port, types.FirstPort, types.HardwarePorts); err != nil {
			return err
		}
		who := portName(u.Port)
		if err := claim(u.TX, who+" tx"); err != nil {
			return err
		}
		if err := claim(u.RX, who+" rx"); err != nil {
			return err
		}
	}
	for _, s := range p.Soft {
		if err := bind(s.Port, types.HardwarePorts+1, types.MaxPort); err != nil {
			return err
		}
		who := portName(s.Port)
		if err := claim(s.TX, who+" tx"); err != nil {
			return err
		}
		if err := claim(s.RX, who+" rx"); err != nil {
			return err
		}
		rx, tx := s.Sizes()
		if !mathx.IsPow2(rx) || !mathx.IsPow2(tx) {
			return &errcode.E{C: errcode.InvalidParams, Op: "plan", Msg: who + " ring size"}
		}
	}
	for port := types.FirstPort; port <= types.MaxPort; port++ {
		if !bound[port] {
			return &errcode.E{C: errcode.UnboundPort, Op: "plan", Msg: portName(port)}
		}
	}
	if err := claim(p.Fan.Pin, "fan"); err != nil {
		return err
	}
	if p.Fan.Initial > 100 {
		return &errcode.E{C: errcode.ValueOutOfRange, Op: "plan", Msg: "fan initial"}
	}
	return nil
}

func portName(p types.Port) string { return "port " + strconvx.Itoa(int(p)) }
