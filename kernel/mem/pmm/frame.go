// Package pmm contains the types shared by the physical memory manager: frames
// and the memory region descriptors reported by the firmware.
package pmm

import "pmmkit/kernel/mem"

// Frame describes a page-aligned physical memory address. The page size is
// chosen at boot, so a Frame stores the address itself rather than a page
// index.
type Frame uintptr

const (
	// InvalidFrame is returned by frame allocators when
	// they fail to reserve the requested frame.
	InvalidFrame = ^Frame(0)
)

// FrameFromAddress returns the frame that contains physAddr, i.e. physAddr
// rounded down to a multiple of pageSize.
func FrameFromAddress(physAddr uintptr, pageSize mem.Size) Frame {
	return Frame(mem.AlignDown(physAddr, pageSize))
}

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the first byte in this frame.
func (f Frame) Address() uintptr {
	return uintptr(f)
}
