package mem

import "unsafe"

// Memset sets size bytes at the given address to the supplied value. Instead
// of using a for loop, this function uses log2(size) copy calls which should
// give us a speed boost as bitmap and page addresses are always aligned.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := Overlay(addr, size)

	// Set first element and make log2(size) optimized copies
	target[0] = value
	for index := Size(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Overlay returns a byte slice that spans size bytes starting at addr. The
// caller must ensure that the address range is mapped and stays valid for as
// long as the slice is in use.
func Overlay(addr uintptr, size Size) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
}
