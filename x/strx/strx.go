package strx

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// IsSpaceASCII reports the C isspace set: space, \t, \n, \v, \f, \r.
func IsSpaceASCII(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

// TrimSpaceASCII returns b without leading and trailing ASCII whitespace.
// The result aliases b.
func TrimSpaceASCII(b []byte) []byte {
	i, j := 0, len(b)
	for i < j && IsSpaceASCII(b[i]) {
		i++
	}
	for j > i && IsSpaceASCII(b[j-1]) {
		j--
	}
	return b[i:j]
}
