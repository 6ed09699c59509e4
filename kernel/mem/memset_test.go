package mem

import (
	"testing"
	"unsafe"
)

func TestMemset(t *testing.T) {
	// memset with a 0 size should be a no-op
	Memset(uintptr(0), 0x00, 0)

	for _, size := range []Size{1, 7, 64, 200, PageSize, 3 * PageSize} {
		// allocate one extra guard byte to detect overruns
		buf := make([]byte, size+1)
		for i := 0; i < len(buf); i++ {
			buf[i] = 0xFE
		}

		Memset(uintptr(unsafe.Pointer(&buf[0])), 0x00, size)

		for i := Size(0); i < size; i++ {
			if got := buf[i]; got != 0x00 {
				t.Errorf("[block of %d bytes] expected byte %d to be 0x00; got 0x%x", size, i, got)
			}
		}

		if got := buf[size]; got != 0xFE {
			t.Errorf("[block of %d bytes] expected guard byte to be untouched; got 0x%x", size, got)
		}
	}
}

func TestOverlay(t *testing.T) {
	buf := []byte{1, 2, 3, 4}

	view := Overlay(uintptr(unsafe.Pointer(&buf[1])), 2)
	if len(view) != 2 || view[0] != 2 || view[1] != 3 {
		t.Fatalf("expected overlay to expose bytes [2 3]; got %v", view)
	}

	view[0] = 42
	if buf[1] != 42 {
		t.Fatal("expected writes through the overlay to reach the underlying memory")
	}
}
