package allocator

import (
	"pmmkit/kernel"
	"pmmkit/kernel/mem"
)

const (
	// noFreeFrame is stored in regionTracker.freeHint when the region is
	// exhausted. It compares greater than any valid frame index.
	noFreeFrame = ^uintptr(0)

	// endOfChain is stored in regionTracker.next by the last tracker.
	endOfChain = -1
)

// regionTracker keeps track of frame reservations inside one contiguous
// physical memory region using a bitmap with one bit per frame. A set bit
// marks an allocated frame. Bits are stored most significant bit first, so
// frame 0 maps to bit 7 of byte 0.
//
// Trackers live inside the allocator metadata buffer and are linked into a
// chain by their index in that buffer.
type regionTracker struct {
	// startAddr is the physical address of frame 0 in this region.
	startAddr uintptr

	// frameCount is the number of frames tracked by the bitmap.
	frameCount uintptr

	// freeHint is the index of the lowest free frame or noFreeFrame if all
	// frames are allocated. All frames below freeHint are allocated.
	freeHint uintptr

	// freeCount tracks the number of free frames in this region.
	freeCount uintptr

	// pageSize is the size of each frame in bytes.
	pageSize mem.Size

	// next is the index of the following tracker in the chain or
	// endOfChain.
	next int

	// bitmap tracks used/free frames in the region.
	bitmap []byte
}

// init sets up the tracker for a region of regionSize bytes starting at
// startAddr. A trailing partial frame is tracked as a full frame. The bitmap
// must hold at least ceil(frameCount/8) bytes; init clears it so that all
// frames start out free.
func (t *regionTracker) init(startAddr uintptr, regionSize, pageSize mem.Size, bitmap []byte) {
	t.startAddr = startAddr
	t.pageSize = pageSize
	t.frameCount = uintptr(regionSize.Pages(pageSize))
	t.freeCount = t.frameCount
	t.next = endOfChain

	bitmapSize := mem.BitmapBytes(uint64(t.frameCount))
	if mem.Size(len(bitmap)) < bitmapSize {
		panic(errBitmapTooSmall)
	}
	t.bitmap = bitmap[:bitmapSize]
	clear(t.bitmap)

	t.freeHint = 0
	if t.frameCount == 0 {
		t.freeHint = noFreeFrame
	}
}

// allocOne reserves the frame pointed to by the free hint and returns its
// physical address. It returns false if the region has no free frames.
func (t *regionTracker) allocOne() (uintptr, bool) {
	if t.freeHint == noFreeFrame {
		return 0, false
	}

	index := t.freeHint
	t.bitmap[index>>3] |= bitMask(index)
	t.freeCount--
	t.freeHint = t.nextFree(index)

	return t.startAddr + index*uintptr(t.pageSize), true
}

// freeOne releases the frame with the given index.
func (t *regionTracker) freeOne(index uintptr) *kernel.Error {
	if index >= t.frameCount {
		return ErrOutOfRange
	}

	mask := bitMask(index)
	if t.bitmap[index>>3]&mask == 0 {
		return ErrDoubleFree
	}

	t.bitmap[index>>3] &^= mask
	t.freeCount++

	// noFreeFrame is larger than any index so an exhausted region gets its
	// hint back here as well.
	if index < t.freeHint {
		t.freeHint = index
	}

	return nil
}

// markRangeAllocated flags count frames starting at first as allocated
// without going through allocOne. It is used at init time to reserve the
// frames that hold the allocator metadata. The range is clipped to the
// region size.
func (t *regionTracker) markRangeAllocated(first, count uintptr) {
	if first >= t.frameCount || count == 0 {
		return
	}

	end := first + count
	if end > t.frameCount || end < first {
		end = t.frameCount
	}

	for index := first; index < end; index++ {
		mask := bitMask(index)
		if t.bitmap[index>>3]&mask != 0 {
			continue
		}

		t.bitmap[index>>3] |= mask
		t.freeCount--
	}

	// Frames below the hint are already allocated, so if the hint fell
	// inside the range the next free frame can only follow it.
	if t.freeHint >= first && t.freeHint < end {
		from := end
		if from >= t.frameCount {
			from = 0
		}
		t.freeHint = t.nextFree(from)
	}
}

// nextFree scans the bitmap for the first free frame with index >= from. It
// returns noFreeFrame if no such frame exists.
func (t *regionTracker) nextFree(from uintptr) uintptr {
	for index := from; index < t.frameCount; {
		block := t.bitmap[index>>3]

		// Skip over fully allocated bytes
		if index&7 == 0 && block == 0xff {
			index += 8
			continue
		}

		if block&bitMask(index) == 0 {
			return index
		}
		index++
	}

	return noFreeFrame
}

// contains returns true if physAddr falls inside one of the tracked frames.
func (t *regionTracker) contains(physAddr uintptr) bool {
	return physAddr >= t.startAddr && (physAddr-t.startAddr)/uintptr(t.pageSize) < t.frameCount
}

// indexOf returns the index of the frame that contains physAddr. The address
// must satisfy contains.
func (t *regionTracker) indexOf(physAddr uintptr) uintptr {
	return (physAddr - t.startAddr) / uintptr(t.pageSize)
}

// endAddr returns the address right after the last tracked frame.
func (t *regionTracker) endAddr() uintptr {
	return t.startAddr + t.frameCount*uintptr(t.pageSize)
}

// bitMask returns the mask for the bit that tracks frame index inside its
// bitmap byte.
func bitMask(index uintptr) byte {
	return 0x80 >> (index & 7)
}
