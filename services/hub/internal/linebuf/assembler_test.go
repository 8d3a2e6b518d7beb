package linebuf

import (
	"bytes"
	"strings"
	"testing"
)

// feedAll feeds s and collects completed lines and overflow count.
func feedAll(a *Assembler, s string) (lines []string, overflows int) {
	for i := 0; i < len(s); i++ {
		line, st := a.Feed(s[i])
		switch st {
		case Complete:
			lines = append(lines, line)
		case Overflow:
			overflows++
		}
	}
	return lines, overflows
}

func TestAssembler_NoTerminatorBelowCapacity(t *testing.T) {
	for n := 0; n < 32; n++ {
		a := New(32)
		in := strings.Repeat("x", n)
		lines, ovf := feedAll(a, in)
		if len(lines) != 0 || ovf != 0 {
			t.Fatalf("n=%d: lines=%v overflows=%d", n, lines, ovf)
		}
		if !bytes.Equal(a.Bytes(), []byte(in)) {
			t.Fatalf("n=%d: buffer %q, want %q", n, a.Bytes(), in)
		}
	}
}

func TestAssembler_SingleTerminator(t *testing.T) {
	a := New(32)
	lines, ovf := feedAll(a, "  hello world\r\n")
	if ovf != 0 {
		t.Fatalf("unexpected overflow")
	}
	if len(lines) != 1 || lines[0] != "hello world" {
		t.Fatalf("lines = %q", lines)
	}
	if a.Len() != 0 {
		t.Fatalf("buffer not empty after line: %q", a.Bytes())
	}
}

func TestAssembler_TerminatorAtEveryPosition(t *testing.T) {
	for k := 0; k < 32; k++ {
		a := New(32)
		prefix := strings.Repeat("a", k)
		lines, ovf := feedAll(a, prefix+"\n")
		if ovf != 0 || len(lines) != 1 || lines[0] != prefix {
			t.Fatalf("k=%d: lines=%q overflows=%d", k, lines, ovf)
		}
		if a.Len() != 0 {
			t.Fatalf("k=%d: buffer not cleared", k)
		}
	}
}

func TestAssembler_EmptyLine(t *testing.T) {
	a := New(32)
	lines, _ := feedAll(a, "\n \t\r\n")
	if len(lines) != 2 || lines[0] != "" || lines[1] != "" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestAssembler_OverflowAtCapacity(t *testing.T) {
	for _, n := range []int{32, 33, 40, 63} {
		a := New(32)
		// Any byte values other than the terminator.
		in := make([]byte, n)
		for i := range in {
			in[i] = byte('A' + i%26)
			if i%7 == 3 {
				in[i] = 0x00
			}
		}
		lines, ovf := feedAll(a, string(in))
		if len(lines) != 0 {
			t.Fatalf("n=%d: unexpected lines %q", n, lines)
		}
		if ovf != 1 {
			t.Fatalf("n=%d: overflows=%d, want 1", n, ovf)
		}
		if want := n - 32; a.Len() != want {
			t.Fatalf("n=%d: buffer len %d, want %d", n, a.Len(), want)
		}
		if a.Overflows() != 1 {
			t.Fatalf("n=%d: counter=%d", n, a.Overflows())
		}
	}
}

func TestAssembler_ResumesAfterOverflow(t *testing.T) {
	a := New(32)
	lines, ovf := feedAll(a, strings.Repeat("z", 32)+"ok\n")
	if ovf != 1 {
		t.Fatalf("overflows=%d", ovf)
	}
	if len(lines) != 1 || lines[0] != "ok" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestAssembler_TruncatedTailIsDelivered(t *testing.T) {
	// 35 bytes then newline: the first 32 overflow, the last 3 survive.
	a := New(32)
	lines, ovf := feedAll(a, strings.Repeat("q", 32)+"end\n")
	if ovf != 1 || len(lines) != 1 || lines[0] != "end" {
		t.Fatalf("lines=%q overflows=%d", lines, ovf)
	}
}

func TestAssembler_SizeClamp(t *testing.T) {
	if got := New(0).Cap(); got != 32 {
		t.Fatalf("default cap = %d", got)
	}
	if got := New(1).Cap(); got != 2 {
		t.Fatalf("min cap = %d", got)
	}
	if got := New(4096).Cap(); got != 256 {
		t.Fatalf("max cap = %d", got)
	}
	// Capacity 2 holds one byte.
	a := New(2)
	if _, st := a.Feed('a'); st != None {
		t.Fatalf("first byte status %d", st)
	}
	if _, st := a.Feed('b'); st != Overflow {
		t.Fatalf("second byte status %d, want Overflow", st)
	}
}

func TestAssembler_Reset(t *testing.T) {
	a := New(8)
	feedAll(a, "abc")
	a.Reset()
	if a.Len() != 0 {
		t.Fatal("Reset kept bytes")
	}
}
