package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// ParseParity maps "none"|"even"|"odd" to a Parity; unknown strings are none.
func ParseParity(s string) Parity {
	switch s {
	case "even":
		return ParityEven
	case "odd":
		return ParityOdd
	default:
		return ParityNone
	}
}

// SerialFormat is a line format; the zero value means 8N1.
type SerialFormat struct {
	DataBits uint8  `yaml:"data_bits,omitempty"`
	StopBits uint8  `yaml:"stop_bits,omitempty"`
	Parity   Parity `yaml:"-"`
}

// SoftSession identifies the rings backing one emulated serial port.
// Handles resolve through shmring.Get.
type SoftSession struct {
	Port     Port
	RXHandle uint32
	TXHandle uint32
}

// SoftSerialConfig is the line setup handed to a soft serial engine.
type SoftSerialConfig struct {
	TX, RX int // GPIO numbers
	Baud   uint32
	Format SerialFormat
}

// SoftSerialDriver runs the emulation engine for one port. Attach must not
// block: the engine produces received bytes into RXHandle and drains
// TXHandle on its own schedule.
type SoftSerialDriver interface {
	Attach(s SoftSession, cfg SoftSerialConfig) error
}
