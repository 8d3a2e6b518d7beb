package shmring

import (
	"testing"
)

// fakeIO models partial producer progress (accept up to k bytes).
type fakeIO struct{ k int }

func (f fakeIO) write(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	if len(p) > f.k {
		return f.k
	}
	return len(p)
}

func TestOrderAcrossWrapWithPartialProgress(t *testing.T) {
	r := New(64)
	prod := fakeIO{k: 7}

	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	p := src
	dst := make([]byte, N)
	off := 0

	for off < N {
		if len(p) > 0 {
			step := prod.write(p)
			if step > 0 {
				step = r.TryWriteFrom(p[:step])
				p = p[step:]
			}
		}

		var tmp [17]byte
		n := r.TryReadInto(tmp[:])
		if n > 0 {
			copy(dst[off:], tmp[:n])
			off += n
		}
	}

	for i := 0; i < N; i++ {
		if dst[i] != src[i] {
			t.Fatalf("mismatch at %d: got=%d want=%d", i, dst[i], src[i])
		}
	}
}

func TestReadableWritableEdges(t *testing.T) {
	r := New(8)
	select {
	case <-r.Readable():
		t.Fatal("unexpected Readable on empty ring")
	default:
	}
	if n := r.TryWriteFrom([]byte{1, 2, 3}); n != 3 {
		t.Fatalf("write 3 -> %d", n)
	}
	select {
	case <-r.Readable():
	default:
		t.Fatal("expected Readable")
	}
	select {
	case <-r.Readable():
		t.Fatal("unexpected extra Readable")
	default:
	}

	// Fill to capacity, then one read must signal Writable.
	if n := r.TryWriteFrom([]byte{4, 5, 6, 7, 8, 9, 10}); n != 5 {
		t.Fatalf("fill -> %d, want 5", n)
	}
	if r.Space() != 0 {
		t.Fatalf("space = %d, want 0", r.Space())
	}
	r.TryReadInto(make([]byte, 1))
	select {
	case <-r.Writable():
	default:
		t.Fatal("expected Writable after full -> not full")
	}
}

func TestTryReadByte(t *testing.T) {
	r := New(4)
	if _, ok := r.TryReadByte(); ok {
		t.Fatal("read from empty ring")
	}
	r.TryWriteFrom([]byte("ab"))
	b, ok := r.TryReadByte()
	if !ok || b != 'a' {
		t.Fatalf("got %q,%v", b, ok)
	}
	if r.Available() != 1 {
		t.Fatalf("available = %d", r.Available())
	}
}

func TestRegistry(t *testing.T) {
	h, r := NewRegistered(16)
	if h == 0 {
		t.Fatal("zero handle")
	}
	if Get(h) != r {
		t.Fatal("Get returned a different ring")
	}
	Close(h)
	if Get(h) != nil {
		t.Fatal("handle still registered after Close")
	}
	if Get(0) != nil {
		t.Fatal("zero handle resolved")
	}
	if Register(nil) != 0 {
		t.Fatal("nil ring registered")
	}
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(24)
}
