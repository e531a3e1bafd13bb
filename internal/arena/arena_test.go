package arena

import "testing"

func TestPushZeroedAndAligned(t *testing.T) {
	a := New(64)
	mem := a.Push(3)
	for _, b := range mem {
		if b != 0 {
			t.Fatalf("expected zeroed memory")
		}
	}
	if a.Watermark()%8 != 0 {
		t.Fatalf("expected 8-byte aligned watermark, got %d", a.Watermark())
	}
}

func TestReleaseRewinds(t *testing.T) {
	a := New(64)
	mark := a.Watermark()
	a.Push(16)
	a.Push(16)
	if a.Watermark() == mark {
		t.Fatalf("expected watermark to advance")
	}
	a.Release(mark)
	if a.Watermark() != mark {
		t.Fatalf("expected release to rewind to %d, got %d", mark, a.Watermark())
	}
}

func TestGrowsPastInitialCapacity(t *testing.T) {
	a := New(8)
	a.Push(1000)
	if a.Watermark() < 1000 {
		t.Fatalf("expected arena to grow past initial capacity")
	}
}

func TestScratchPoolAvoidsConflict(t *testing.T) {
	pool := NewPool(32)
	s1 := pool.GetScratch(nil)
	s2 := pool.GetScratch(s1.Arena)
	if s1.Arena == s2.Arena {
		t.Fatalf("expected distinct scratch arenas when conflict given")
	}
}
