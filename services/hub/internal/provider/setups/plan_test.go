package setups

import (
	"testing"

	"serialhub-go/errcode"
)

func clonePlan() ResourcePlan {
	p := PicoSerialHub
	p.UART = append([]UARTPlan(nil), p.UART...)
	p.Soft = append([]SoftPlan(nil), p.Soft...)
	return p
}

func TestPicoSerialHubIsValid(t *testing.T) {
	if err := PicoSerialHub.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(PicoSerialHub.UART) != 2 || len(PicoSerialHub.Soft) != 4 {
		t.Fatalf("port counts %d/%d", len(PicoSerialHub.UART), len(PicoSerialHub.Soft))
	}
}

func TestSoftSizesDefault(t *testing.T) {
	rx, tx := SoftPlan{}.Sizes()
	if rx != DefaultSoftRX || tx != DefaultSoftTX {
		t.Fatalf("sizes %d/%d", rx, tx)
	}
	rx, tx = SoftPlan{RXSize: 64, TXSize: 32}.Sizes()
	if rx != 64 || tx != 32 {
		t.Fatalf("sizes %d/%d", rx, tx)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *ResourcePlan)
		want   errcode.Code
	}{
		{"missing soft port", func(p *ResourcePlan) { p.Soft = p.Soft[:3] }, errcode.UnboundPort},
		{"missing uart", func(p *ResourcePlan) { p.UART = p.UART[:1] }, errcode.UnboundPort},
		{"duplicate port", func(p *ResourcePlan) { p.Soft[1].Port = 3 }, errcode.PortInUse},
		{"soft on uart port", func(p *ResourcePlan) { p.Soft[0].Port = 2 }, errcode.InvalidParams},
		{"uart on soft port", func(p *ResourcePlan) { p.UART[1].Port = 3 }, errcode.InvalidParams},
		{"unknown bus", func(p *ResourcePlan) { p.UART[0].ID = "uart7" }, errcode.UnknownBus},
		{"shared pin", func(p *ResourcePlan) { p.Soft[3].RX = 16 }, errcode.PinInUse},
		{"fan on uart pin", func(p *ResourcePlan) { p.Fan.Pin = 0 }, errcode.PinInUse},
		{"negative pin", func(p *ResourcePlan) { p.Soft[0].TX = -1 }, errcode.UnknownPin},
		{"ring size", func(p *ResourcePlan) { p.Soft[2].RXSize = 100 }, errcode.InvalidParams},
		{"fan initial", func(p *ResourcePlan) { p.Fan.Initial = 101 }, errcode.ValueOutOfRange},
	}
	for _, c := range cases {
		p := clonePlan()
		c.mutate(&p)
		if got := errcode.Of(p.Validate()); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}
