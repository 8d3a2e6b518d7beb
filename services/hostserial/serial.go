// Package hostserial connects host serial devices and stdio to ring pairs
// so that the hub can run on a workstation exactly as it runs on the board.
package hostserial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"serialhub-go/types"
)

// ReadTimeout bounds each device read so pumps notice cancellation. On
// expiry the driver reports io.EOF with no data.
const ReadTimeout = 100 * time.Millisecond

// Device names one serial device and its line setup.
type Device struct {
	Name   string
	Baud   int
	Format types.SerialFormat
}

// Open opens the device in raw mode with ReadTimeout applied.
func Open(d Device) (io.ReadWriteCloser, error) {
	cfg := &serial.Config{
		Name:        d.Name,
		Baud:        d.Baud,
		ReadTimeout: ReadTimeout,
		Size:        d.Format.DataBits, // 0 selects 8
		Parity:      tarmParity(d.Format.Parity),
		StopBits:    tarmStopBits(d.Format.StopBits),
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	return port, nil
}

func tarmParity(p types.Parity) serial.Parity {
	switch p {
	case types.ParityEven:
		return serial.ParityEven
	case types.ParityOdd:
		return serial.ParityOdd
	default:
		return serial.ParityNone
	}
}

func tarmStopBits(n uint8) serial.StopBits {
	if n == 2 {
		return serial.Stop2
	}
	return serial.Stop1
}
