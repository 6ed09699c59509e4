package main

import (
	"errors"
	"fmt"

	"pmmkit/kernel/mem"
	"pmmkit/kernel/mem/pmm"
	"pmmkit/kernel/mem/pmm/allocator"
)

// unmapArenaFn is mocked by tests.
var unmapArenaFn = unmapArena

// machine is a simulated boot environment: a memory map, the physical memory
// backing its usable regions and the frame allocator built on top of them.
type machine struct {
	regions []pmm.Region
	usable  []pmm.Region
	cfg     allocator.Config
	arena   []byte
	alloc   *allocator.BitmapAllocator
}

func bootMachine(opts *options) (*machine, error) {
	regions, err := parseRegions(opts.regions)
	if err != nil {
		return nil, err
	}

	pageSize := mem.Size(opts.pageSize)
	if !pageSize.IsPowerOfTwo() {
		return nil, fmt.Errorf("page size %d: %w", opts.pageSize, allocator.ErrInvalidPageSize)
	}

	usable := pmm.FilterUsable(nil, regions, pageSize)
	if len(usable) == 0 {
		return nil, fmt.Errorf("memory map has no usable regions: %w", allocator.ErrNoSuitableRegion)
	}

	arena, offset, err := mapArena(usable)
	if err != nil {
		return nil, err
	}

	cfg := allocator.Config{PageSize: pageSize, DirectMapOffset: offset}
	alloc, kerr := allocator.New(usable, cfg)
	if kerr != nil {
		err = fmt.Errorf("initialize frame allocator: %w", kerr)
		if unmapErr := unmapArenaFn(arena); unmapErr != nil {
			err = errors.Join(err, unmapErr)
		}
		return nil, err
	}

	return &machine{
		regions: regions,
		usable:  usable,
		cfg:     cfg,
		arena:   arena,
		alloc:   alloc,
	}, nil
}

// touch fills a frame through the direct map so that frames outside the
// simulated physical memory fault immediately.
func (m *machine) touch(frame pmm.Frame, value byte) {
	mem.Memset(frame.Address()+m.cfg.DirectMapOffset, value, m.cfg.PageSize)
}

// physAddr converts a direct-mapped address back to a physical address.
func (m *machine) physAddr(virtAddr uintptr) uintptr {
	return virtAddr - m.cfg.DirectMapOffset
}

func (m *machine) shutdown() error {
	return unmapArenaFn(m.arena)
}
