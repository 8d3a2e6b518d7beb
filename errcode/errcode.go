package errcode

// Code is a stable, protocol-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"

	// Command path.
	MalformedCommand Code = "malformed_command"
	PortOutOfRange   Code = "port_out_of_range"
	LocalPort        Code = "local_port"
	UnknownCommand   Code = "unknown_command"
	ValueOutOfRange  Code = "value_out_of_range"

	// Line framing.
	BufferOverflow Code = "buffer_overflow"

	// Bindings.
	UnboundPort Code = "unbound_port"
	PortInUse   Code = "port_in_use"
	UnknownBus  Code = "unknown_bus"
	UnknownPin  Code = "unknown_pin"
	PinInUse    Code = "pin_in_use"

	Error Code = "error" // generic fallback
)

// E wraps a Code when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an *E for op with code c.
func Wrap(op string, c Code, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
