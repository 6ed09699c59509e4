package kmain

import (
	"pmmkit/kernel"
	"pmmkit/kernel/hal/multiboot"
	"pmmkit/kernel/kfmt"
	"pmmkit/kernel/mem"
	"pmmkit/kernel/mem/pmm"
	"pmmkit/kernel/mem/pmm/allocator"
)

// maxMemRegions bounds the number of memory map entries that are processed.
const maxMemRegions = 64

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// panicFn and allocatorInitFn are mocked by tests.
	panicFn         = kfmt.Panic
	allocatorInitFn = allocator.Init

	// The memory map is decoded into static storage as there is no
	// allocator available yet.
	memRegions    [maxMemRegions]pmm.Region
	usableRegions [maxMemRegions]pmm.Region
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code after setting up the GDT
// and setting up a a minimal g0 struct that allows Go code using the 4K stack
// allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by the
// bootloader as well as the offset of the direct physical memory mapping.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, directMapOffset uintptr) {
	// Go panics raised while booting (e.g. runtime errors) end up in the
	// kernel panic handler instead of unwinding into the rt0 code.
	defer func() {
		if r := recover(); r != nil {
			panicFn(r)
		}
	}()

	multiboot.SetInfoPtr(multibootInfoPtr)

	regions := multiboot.MemRegions(memRegions[:0])
	for _, region := range regions {
		kfmt.Printf("[boot] mem region [0x%10x - 0x%10x] %s\n", region.Base, region.End(), region.Kind.String())
	}

	usable := pmm.FilterUsable(usableRegions[:0], regions, mem.PageSize)
	if err := allocatorInitFn(usable, allocator.Config{PageSize: mem.PageSize, DirectMapOffset: directMapOffset}); err != nil {
		panicFn(err)
		return
	}

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}
