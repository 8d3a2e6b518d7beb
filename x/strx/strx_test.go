package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if Coalesce("", "d") != "d" || Coalesce("s", "d") != "s" {
		t.Fatal("Coalesce")
	}
}

func TestTrimSpaceASCII(t *testing.T) {
	for in, want := range map[string]string{
		"":              "",
		"   ":           "",
		"abc":           "abc",
		" \tabc\r":      "abc",
		"\v\fa b\r\n ":  "a b",
		"x\x00":         "x\x00",
	} {
		if got := string(TrimSpaceASCII([]byte(in))); got != want {
			t.Errorf("TrimSpaceASCII(%q) = %q, want %q", in, got, want)
		}
	}
}
