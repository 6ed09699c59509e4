//go:build unix

package allocator

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// mapPhysMem backs the physical range [physBase, physBase+size) with an
// anonymous mapping and returns the direct map offset that translates
// physical addresses in that range to addresses inside the mapping. The
// mapping is released when the test completes.
func mapPhysMem(t *testing.T, physBase uint64, size int) uintptr {
	t.Helper()

	arena, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, unix.Munmap(arena))
	})

	// Fill with junk so that tests catch any missing initialization
	for i := range arena {
		arena[i] = 0xf0
	}

	return uintptr(unsafe.Pointer(&arena[0])) - uintptr(physBase)
}
