package local

// DutySink is the PWM output behind the fan, in physical percent (0..100).
type DutySink interface {
	SetDuty(percent uint8)
}

// MaxDuty is the top of the logical duty range.
const MaxDuty = 100

// Fan keeps the logical duty and drives the sink, inverting when the
// output is gated active-low.
type Fan struct {
	sink      DutySink
	activeLow bool
	duty      uint8 // logical
}

// NewFan applies the initial logical duty immediately.
func NewFan(sink DutySink, activeLow bool, initial uint8) *Fan {
	f := &Fan{sink: sink, activeLow: activeLow}
	f.Set(initial)
	return f
}

// Set clamps to MaxDuty, stores the logical value and writes the physical one.
func (f *Fan) Set(duty uint8) {
	if duty > MaxDuty {
		duty = MaxDuty
	}
	f.duty = duty
	if f.sink != nil {
		f.sink.SetDuty(f.toPhys(duty))
	}
}

// Duty returns the logical duty.
func (f *Fan) Duty() uint8 { return f.duty }

func (f *Fan) toPhys(logical uint8) uint8 {
	if !f.activeLow {
		return logical
	}
	return MaxDuty - logical
}
