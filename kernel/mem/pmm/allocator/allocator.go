// Package allocator implements the kernel's physical frame allocator.
package allocator

import (
	"pmmkit/kernel"
	"pmmkit/kernel/mem/pmm"
	"pmmkit/kernel/sync"
)

var (
	// FrameAllocator is a BitmapAllocator instance that serves as the
	// primary allocator for reserving frames. Use the package-level
	// AllocFrame and FreeFrame helpers to access it safely.
	FrameAllocator BitmapAllocator

	// frameAllocatorLock serializes access to FrameAllocator from multiple
	// execution contexts.
	frameAllocatorLock sync.Spinlock
)

// Init sets up the kernel physical frame allocator using the usable memory
// regions reported by the boot loader. A non-nil error is fatal for the
// kernel.
func Init(usableRegions []pmm.Region, cfg Config) *kernel.Error {
	frameAllocatorLock.Acquire()
	err := FrameAllocator.Init(usableRegions, cfg)
	if err == nil {
		FrameAllocator.PrintStats()
	}
	frameAllocatorLock.Release()

	return err
}

// AllocFrame reserves a physical frame using FrameAllocator.
func AllocFrame() (pmm.Frame, *kernel.Error) {
	frameAllocatorLock.Acquire()
	frame, err := FrameAllocator.AllocFrame()
	frameAllocatorLock.Release()

	return frame, err
}

// FreeFrame releases a frame previously obtained via AllocFrame.
func FreeFrame(frame pmm.Frame) *kernel.Error {
	frameAllocatorLock.Acquire()
	err := FrameAllocator.FreeFrame(frame)
	frameAllocatorLock.Release()

	return err
}
