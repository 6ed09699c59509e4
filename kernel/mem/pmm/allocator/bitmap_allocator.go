package allocator

import (
	"unsafe"

	"pmmkit/kernel"
	"pmmkit/kernel/kfmt"
	"pmmkit/kernel/mem"
	"pmmkit/kernel/mem/pmm"
)

// trackerRecordSize is the size of a single regionTracker record. The
// metadata size includes two records per region so alignment padding never
// overflows the buffer.
const trackerRecordSize = mem.Size(unsafe.Sizeof(regionTracker{}))

var logPrefix = []byte("[pmm] ")

// Config holds the boot-time constants that the allocator needs. Both values
// are fixed once the kernel starts and are passed explicitly instead of being
// read from global state.
type Config struct {
	// PageSize is the frame size in bytes. It must be a power of 2.
	PageSize mem.Size

	// DirectMapOffset is added to a physical address to obtain a virtual
	// address that the kernel can dereference.
	DirectMapOffset uintptr
}

// BitmapAllocator implements a physical frame allocator that tracks frame
// reservations across the usable memory regions using one bitmap per region.
//
// The allocator hosts its own bookkeeping: during Init it sizes the metadata
// for all regions, carves a buffer out of the first usable region that can
// fit it and marks the frames backing that buffer as allocated so they are
// never handed out.
//
// BitmapAllocator performs no locking; callers must serialize access. The
// package-level AllocFrame and FreeFrame helpers do this for the
// FrameAllocator instance.
type BitmapAllocator struct {
	cfg Config

	// trackers is an arena with one record per usable region. It is
	// overlaid on top of the metadata buffer.
	trackers []regionTracker

	// head is the index of the first tracker in the allocation chain.
	head int

	// hostIndex is the index of the tracker whose region holds the
	// metadata buffer.
	hostIndex int

	// metaAddr is the virtual address of the metadata buffer and metaSize
	// its size in bytes, excluding alignment padding.
	metaAddr uintptr
	metaSize mem.Size

	// metaFrameCount is the number of frames, starting at frame 0 of the
	// host region, that are reserved for the metadata buffer.
	metaFrameCount uintptr

	// totalFrames tracks the total number of frames across all regions.
	totalFrames uint64
}

// RegionStats describes the state of a single region managed by the
// allocator.
type RegionStats struct {
	// StartAddr and EndAddr delimit the tracked frames of the region.
	StartAddr, EndAddr uintptr

	// Frames is the number of frames in the region and FreeFrames the
	// number of frames that can still be allocated.
	Frames, FreeFrames uint64

	// HostsMetadata is set for the region that holds the allocator
	// metadata.
	HostsMetadata bool
}

// New returns a BitmapAllocator initialized with the supplied usable regions.
// It is a convenience wrapper around Init for code that can use the Go heap.
func New(regions []pmm.Region, cfg Config) (*BitmapAllocator, *kernel.Error) {
	alloc := new(BitmapAllocator)
	if err := alloc.Init(regions, cfg); err != nil {
		return nil, err
	}
	return alloc, nil
}

// trackedRegion returns the page-aligned part of region that the allocator
// manages. It returns false for regions that are not usable or do not hold a
// single whole page.
func trackedRegion(region pmm.Region, pageSize mem.Size) (pmm.Region, bool) {
	if region.Kind != pmm.RegionUsable {
		return pmm.Region{}, false
	}

	return region.PageAligned(pageSize)
}

// MetadataSize returns the number of bytes that Init reserves for tracking
// the supplied regions. Only usable regions holding at least one whole page
// are counted.
func MetadataSize(regions []pmm.Region, pageSize mem.Size) mem.Size {
	var size mem.Size
	for _, region := range regions {
		region, ok := trackedRegion(region, pageSize)
		if !ok {
			continue
		}

		size += 2*trackerRecordSize + mem.BitmapBytes(mem.Size(region.Length).Pages(pageSize))
	}

	return size
}

// Init builds the allocator state for the supplied list of usable regions,
// given in the order reported by the firmware. Regions of any other kind are
// ignored. Usable regions are trimmed to whole pages as done by
// pmm.FilterUsable and regions without a whole page get no tracker. Init
// either fully succeeds or leaves the allocator untouched.
func (alloc *BitmapAllocator) Init(regions []pmm.Region, cfg Config) *kernel.Error {
	if alloc.trackers != nil {
		return ErrAlreadyInitialized
	}

	if !cfg.PageSize.IsPowerOfTwo() {
		return ErrInvalidPageSize
	}

	metaSize := MetadataSize(regions, cfg.PageSize)

	// Select the first usable region that can fit the metadata once its
	// direct-mapped address is aligned to a page boundary.
	var (
		host              pmm.Region
		hostIndex         = -1
		trackerCount      int
		metaAddr, padding uintptr
	)
	for _, region := range regions {
		region, ok := trackedRegion(region, cfg.PageSize)
		if !ok {
			continue
		}

		if hostIndex == -1 {
			virtAddr := uintptr(region.Base) + cfg.DirectMapOffset
			alignedAddr := mem.Align(virtAddr, cfg.PageSize)
			if mem.Size(region.Length) >= metaSize+mem.Size(alignedAddr-virtAddr) {
				host, hostIndex = region, trackerCount
				metaAddr, padding = alignedAddr, alignedAddr-virtAddr
			}
		}
		trackerCount++
	}

	kfmt.Printf("[pmm] allocator requires %d bytes to track %d regions\n", uint64(metaSize), trackerCount)

	if hostIndex == -1 {
		return ErrNoSuitableRegion
	}

	kfmt.Printf("[pmm] region %d at 0x%x (%d bytes) will hold the allocator metadata\n", hostIndex, host.Base, host.Length)

	// Carve the tracker arena followed by the per-region bitmaps out of the
	// metadata buffer.
	mem.Memset(metaAddr, 0, metaSize)
	trackers := unsafe.Slice((*regionTracker)(unsafe.Pointer(metaAddr)), trackerCount)
	bitmapAddr := metaAddr + uintptr(trackerCount)*uintptr(trackerRecordSize)

	var (
		totalFrames  uint64
		trackerIndex int
	)
	for _, region := range regions {
		region, ok := trackedRegion(region, cfg.PageSize)
		if !ok {
			continue
		}

		bitmapSize := mem.BitmapBytes(mem.Size(region.Length).Pages(cfg.PageSize))
		tracker := &trackers[trackerIndex]
		tracker.init(uintptr(region.Base), mem.Size(region.Length), cfg.PageSize, mem.Overlay(bitmapAddr, bitmapSize))
		if trackerIndex > 0 {
			trackers[trackerIndex-1].next = trackerIndex
		}

		totalFrames += uint64(tracker.frameCount)
		bitmapAddr += uintptr(bitmapSize)
		trackerIndex++
	}

	// Reserve the frames that back the metadata buffer, including any
	// padding introduced by aligning its start address.
	metaFrameCount := uintptr((mem.Size(padding) + metaSize).Pages(cfg.PageSize))
	trackers[hostIndex].markRangeAllocated(0, metaFrameCount)

	alloc.cfg = cfg
	alloc.trackers = trackers
	alloc.head = 0
	alloc.hostIndex = hostIndex
	alloc.metaAddr = metaAddr
	alloc.metaSize = metaSize
	alloc.metaFrameCount = metaFrameCount
	alloc.totalFrames = totalFrames

	return nil
}

// AllocFrame reserves and returns a physical memory frame. Regions are tried
// in firmware report order so earlier regions are exhausted first.
//
// AllocFrame returns ErrOutOfMemory if every tracked frame is allocated.
func (alloc *BitmapAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	if alloc.trackers == nil {
		return pmm.InvalidFrame, ErrOutOfMemory
	}

	for index := alloc.head; index != endOfChain; index = alloc.trackers[index].next {
		if addr, ok := alloc.trackers[index].allocOne(); ok {
			return pmm.FrameFromAddress(addr, alloc.cfg.PageSize), nil
		}
	}

	return pmm.InvalidFrame, ErrOutOfMemory
}

// FreeFrame releases a frame previously returned by AllocFrame.
//
// FreeFrame returns ErrInvalidFrame if the frame is not managed by the
// allocator and ErrDoubleFree if the frame is not currently allocated.
//
// Frames holding the allocator metadata are allocated but were never handed
// out by AllocFrame; releasing one also fails with ErrInvalidFrame and leaves
// the frame reserved, so the metadata can never be allocated to a caller.
func (alloc *BitmapAllocator) FreeFrame(frame pmm.Frame) *kernel.Error {
	if alloc.trackers == nil {
		return ErrInvalidFrame
	}

	addr := frame.Address()
	for index := alloc.head; index != endOfChain; index = alloc.trackers[index].next {
		tracker := &alloc.trackers[index]
		if !tracker.contains(addr) {
			continue
		}

		frameIndex := tracker.indexOf(addr)
		if index == alloc.hostIndex && frameIndex < alloc.metaFrameCount {
			return ErrInvalidFrame
		}

		return tracker.freeOne(frameIndex)
	}

	return ErrInvalidFrame
}

// TotalFrames returns the number of frames across all managed regions,
// including the frames reserved for the allocator metadata.
func (alloc *BitmapAllocator) TotalFrames() uint64 {
	return alloc.totalFrames
}

// FreeFrames returns the number of frames that can still be allocated.
func (alloc *BitmapAllocator) FreeFrames() uint64 {
	var free uint64
	for index := range alloc.trackers {
		free += uint64(alloc.trackers[index].freeCount)
	}
	return free
}

// ReservedFrames returns the number of frames that hold the allocator
// metadata.
func (alloc *BitmapAllocator) ReservedFrames() uint64 {
	return uint64(alloc.metaFrameCount)
}

// MetadataAddr returns the virtual address and size of the metadata buffer.
func (alloc *BitmapAllocator) MetadataAddr() (uintptr, mem.Size) {
	return alloc.metaAddr, alloc.metaSize
}

// VisitRegions invokes visitor for each managed region in allocation order.
// The visitor returns false to stop the scan.
func (alloc *BitmapAllocator) VisitRegions(visitor func(RegionStats) bool) {
	if alloc.trackers == nil {
		return
	}

	for index := alloc.head; index != endOfChain; index = alloc.trackers[index].next {
		tracker := &alloc.trackers[index]
		stats := RegionStats{
			StartAddr:     tracker.startAddr,
			EndAddr:       tracker.endAddr(),
			Frames:        uint64(tracker.frameCount),
			FreeFrames:    uint64(tracker.freeCount),
			HostsMetadata: index == alloc.hostIndex,
		}

		if !visitor(stats) {
			return
		}
	}
}

// PrintStats writes a summary of the managed regions to the kernel log.
func (alloc *BitmapAllocator) PrintStats() {
	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: logPrefix}

	alloc.VisitRegions(func(stats RegionStats) bool {
		kfmt.Fprintf(&w, "[0x%10x - 0x%10x] frames: %8d, free: %8d, metadata: %t\n",
			stats.StartAddr, stats.EndAddr, stats.Frames, stats.FreeFrames, stats.HostsMetadata,
		)
		return true
	})

	kfmt.Fprintf(&w, "frame size: %d bytes, total frames: %d, free: %d, reserved for metadata: %d\n",
		uint64(alloc.cfg.PageSize), alloc.totalFrames, alloc.FreeFrames(), uint64(alloc.metaFrameCount),
	)
}
