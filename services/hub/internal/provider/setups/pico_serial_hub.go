package setups

import "serialhub-go/types"

// PicoSerialHub is the six-port hub board: two hardware UARTs, four PIO
// ports and a 4-wire fan gated active-low on GP16.
var PicoSerialHub = ResourcePlan{
	UART: []UARTPlan{
		{ID: "uart0", Port: 1, TX: 0, RX: 1, Baud: 115_200},
		{ID: "uart1", Port: 2, TX: 8, RX: 9, Baud: 115_200},
	},
	Soft: []SoftPlan{
		{Port: 3, TX: 2, RX: 3, Baud: 115_200},
		{Port: 4, TX: 4, RX: 5, Baud: 115_200},
		{Port: 5, TX: 6, RX: 7, Baud: 9_600, RXSize: 64, TXSize: 128},
		{Port: 6, TX: 10, RX: 11, Baud: 9_600, RXSize: 64, TXSize: 128},
	},
	Fan: FanPlan{
		Pin:       16,
		FreqHz:    25_000,
		Top:       100,
		ActiveLow: true,
		Initial:   0,
	},
	BufferSize: types.DefaultBufferSize,
}
