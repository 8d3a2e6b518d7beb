//go:build rp2040

package strconvx

// Minimal, allocation-aware helpers with identical signatures.
// Supported bases: 2..36, or 0 for prefix detection (0x, 0b, 0o).

func Itoa(i int) string {
	if i < 0 {
		return "-" + formatUint(uint64(-i), 10)
	}
	return formatUint(uint64(i), 10)
}

// Atoi accepts an optional leading sign, like strconv.Atoi.
func Atoi(s string) (int, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if u > 1<<31 || (!neg && u == 1<<31) {
		return 0, rangeError{}
	}
	if neg {
		return -int(u), nil
	}
	return int(u), nil
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	return formatUint(u, base)
}

func formatUint(u uint64, base int) string {
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

type parseError struct{}

func (parseError) Error() string { return "invalid syntax" }

type rangeError struct{}

func (rangeError) Error() string { return "value out of range" }

// ParseUint rejects signs and values that do not fit bitSize (0 => 64).
func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base = detectBase(&s)
	}
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, parseError{}
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	max := uint64(1)<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}
	b := uint64(base)
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'z':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'Z':
			d = c - 'A' + 10
		default:
			return 0, parseError{}
		}
		if int(d) >= base {
			return 0, parseError{}
		}
		if v > (max-uint64(d))/b {
			return 0, rangeError{}
		}
		v = v*b + uint64(d)
	}
	return v, nil
}

func detectBase(ps *string) int {
	s := *ps
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			*ps = s[2:]
			return 16
		case 'b', 'B':
			*ps = s[2:]
			return 2
		case 'o', 'O':
			*ps = s[2:]
			return 8
		}
	}
	return 10
}
