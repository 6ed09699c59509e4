package main

import (
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/sys/unix"

	"pmmkit/kernel/mem"
	"pmmkit/kernel/mem/pmm"
)

// maxArenaSize caps the span of simulated physical memory. Pages are only
// committed when touched so the cap only guards against absurd memory maps.
const maxArenaSize = 64 * mem.Gb

// mapArena reserves a single anonymous mapping spanning all usable regions and
// returns it together with the offset that translates physical addresses into
// addresses inside the mapping.
func mapArena(usable []pmm.Region) ([]byte, uintptr, error) {
	start, end := usable[0].Base, usable[0].End()
	for _, region := range usable[1:] {
		start = min(start, region.Base)
		end = max(end, region.End())
	}

	size := end - start
	if size > uint64(maxArenaSize) || size > math.MaxInt {
		return nil, 0, fmt.Errorf("usable memory spans %d bytes; the simulator supports up to %d", size, uint64(maxArenaSize))
	}

	arena, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_NORESERVE)
	if err != nil {
		return nil, 0, fmt.Errorf("map %d bytes of simulated memory: %w", size, err)
	}

	return arena, uintptr(unsafe.Pointer(&arena[0])) - uintptr(start), nil
}

func unmapArena(arena []byte) error {
	if err := unix.Munmap(arena); err != nil {
		return fmt.Errorf("unmap simulated memory: %w", err)
	}
	return nil
}
