package pmm

import "pmmkit/kernel/mem"

// RegionKind classifies a physical memory region reported by the firmware.
type RegionKind uint32

const (
	// RegionUsable indicates that the memory region is available for use.
	RegionUsable RegionKind = iota + 1

	// RegionReserved indicates that the memory region is not available for use.
	RegionReserved

	// RegionACPIReclaimable indicates a memory region that holds ACPI info
	// that can be reused by the OS once the tables have been parsed.
	RegionACPIReclaimable

	// RegionNVS indicates memory that must be preserved when hibernating.
	RegionNVS
)

// String implements fmt.Stringer for RegionKind.
func (k RegionKind) String() string {
	switch k {
	case RegionUsable:
		return "usable"
	case RegionReserved:
		return "reserved"
	case RegionACPIReclaimable:
		return "ACPI (reclaimable)"
	case RegionNVS:
		return "NVS"
	default:
		return "unknown"
	}
}

// Region describes a contiguous range of physical memory as reported by the
// firmware or boot loader. Regions are produced once at boot and never change.
type Region struct {
	// The physical address of the first byte in the region.
	Base uint64

	// The region length in bytes.
	Length uint64

	// The region type.
	Kind RegionKind
}

// End returns the physical address right after the last byte of the region.
func (r Region) End() uint64 {
	return r.Base + r.Length
}

// PageAligned returns the part of r made of whole pageSize-sized pages: the
// base is rounded up and the end rounded down to pageSize. It returns false
// if r does not contain a single whole page.
func (r Region) PageAligned(pageSize mem.Size) (Region, bool) {
	pageSizeMinus1 := uint64(pageSize - 1)

	start := (r.Base + pageSizeMinus1) &^ pageSizeMinus1
	end := r.End() &^ pageSizeMinus1

	if end <= start || r.End() < r.Base || start < r.Base {
		return Region{}, false
	}

	return Region{Base: start, Length: end - start, Kind: r.Kind}, true
}

// FilterUsable appends every usable region from regions to dst, preserving
// the firmware report order, and returns the extended slice. Callers that
// run before the Go allocator is available pass a dst with enough capacity.
//
// Reported addresses may not be page-aligned; each usable region is shrunk
// with PageAligned and regions that do not contain a single whole page are
// dropped.
func FilterUsable(dst, regions []Region, pageSize mem.Size) []Region {
	for _, region := range regions {
		if region.Kind != RegionUsable {
			continue
		}

		if aligned, ok := region.PageAligned(pageSize); ok {
			dst = append(dst, aligned)
		}
	}

	return dst
}
