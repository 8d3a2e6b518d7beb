package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Errorf("Of(nil) = %q, want %q", got, OK)
	}
	if got := Of(PortOutOfRange); got != PortOutOfRange {
		t.Errorf("Of(code) = %q", got)
	}
	wrapped := Wrap("routing.New", PortInUse, "port 3")
	if got := Of(wrapped); got != PortInUse {
		t.Errorf("Of(wrapped) = %q, want %q", got, PortInUse)
	}
	if got := Of(errors.New("boom")); got != Error {
		t.Errorf("Of(plain) = %q, want %q", got, Error)
	}
}

func TestEError(t *testing.T) {
	cause := errors.New("cause")
	e := &E{C: UnboundPort, Op: "routing.New", Msg: "port 4", Err: cause}
	if got, want := e.Error(), "routing.New: unbound_port: port 4"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Errorf("errors.Is did not find cause")
	}
	if got := (&E{C: Error}).Error(); got != "error" {
		t.Errorf("bare Error() = %q", got)
	}
}
