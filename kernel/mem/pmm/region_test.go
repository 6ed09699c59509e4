package pmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmmkit/kernel/mem"
)

func TestRegionKindString(t *testing.T) {
	specs := []struct {
		kind RegionKind
		exp  string
	}{
		{RegionUsable, "usable"},
		{RegionReserved, "reserved"},
		{RegionACPIReclaimable, "ACPI (reclaimable)"},
		{RegionNVS, "NVS"},
		{RegionKind(0), "unknown"},
		{RegionKind(123), "unknown"},
	}

	for _, spec := range specs {
		assert.Equal(t, spec.exp, spec.kind.String())
	}
}

func TestFilterUsable(t *testing.T) {
	// The memory map reported by qemu running with 128M RAM.
	regions := []Region{
		{Base: 0x0, Length: 0x9fc00, Kind: RegionUsable},
		{Base: 0x9fc00, Length: 0x400, Kind: RegionReserved},
		{Base: 0xf0000, Length: 0x10000, Kind: RegionReserved},
		{Base: 0x100000, Length: 0x7ee0000, Kind: RegionUsable},
		{Base: 0x7fe0000, Length: 0x20000, Kind: RegionReserved},
		{Base: 0xfffc0000, Length: 0x40000, Kind: RegionReserved},
	}

	got := FilterUsable(nil, regions, mem.PageSize)
	require.Len(t, got, 2)

	// The trailing 0xc00 bytes of the first region do not fill a page
	assert.Equal(t, Region{Base: 0x0, Length: 0x9f000, Kind: RegionUsable}, got[0])
	assert.Equal(t, Region{Base: 0x100000, Length: 0x7ee0000, Kind: RegionUsable}, got[1])
}

func TestFilterUsableAlignment(t *testing.T) {
	specs := []struct {
		name   string
		region Region
		exp    []Region
	}{
		{
			"aligned",
			Region{Base: 0x200000, Length: 0x2000, Kind: RegionUsable},
			[]Region{{Base: 0x200000, Length: 0x2000, Kind: RegionUsable}},
		},
		{
			"unaligned base",
			Region{Base: 0x200010, Length: 0x2000, Kind: RegionUsable},
			[]Region{{Base: 0x201000, Length: 0x1000, Kind: RegionUsable}},
		},
		{
			"smaller than a page",
			Region{Base: 0x200000, Length: 0xfff, Kind: RegionUsable},
			nil,
		},
		{
			"straddles a page boundary without containing a page",
			Region{Base: 0x200800, Length: 0x1000, Kind: RegionUsable},
			nil,
		},
		{
			"empty",
			Region{Base: 0x200000, Length: 0, Kind: RegionUsable},
			nil,
		},
		{
			"not usable",
			Region{Base: 0x200000, Length: 0x4000, Kind: RegionNVS},
			nil,
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			assert.Equal(t, spec.exp, FilterUsable(nil, []Region{spec.region}, mem.PageSize))
		})
	}
}

func TestFilterUsableAppendsToDst(t *testing.T) {
	var storage [4]Region
	dst := storage[:0]

	dst = FilterUsable(dst, []Region{
		{Base: 0x100000, Length: 0x4000, Kind: RegionUsable},
		{Base: 0x180000, Length: 0x4000, Kind: RegionReserved},
		{Base: 0x200000, Length: 0x2000, Kind: RegionUsable},
	}, mem.PageSize)

	require.Len(t, dst, 2)
	assert.Same(t, &storage[0], &dst[0], "expected FilterUsable to reuse the supplied storage")
	assert.Equal(t, uint64(0x100000), dst[0].Base)
	assert.Equal(t, uint64(0x200000), dst[1].Base)
	assert.Equal(t, uint64(0x202000), dst[1].End())
}

func TestRegionPageAligned(t *testing.T) {
	specs := []struct {
		region Region
		exp    Region
		expOK  bool
	}{
		{Region{Base: 0x1000, Length: 0x2000, Kind: RegionUsable}, Region{Base: 0x1000, Length: 0x2000, Kind: RegionUsable}, true},
		{Region{Base: 0x100800, Length: 0x4000, Kind: RegionUsable}, Region{Base: 0x101000, Length: 0x3000, Kind: RegionUsable}, true},
		{Region{Base: 0x1000, Length: 0x1800, Kind: RegionReserved}, Region{Base: 0x1000, Length: 0x1000, Kind: RegionReserved}, true},
		{Region{Base: 0x800, Length: 0x1000, Kind: RegionUsable}, Region{}, false},
		{Region{Base: ^uint64(0) - 0x10, Length: 0x8, Kind: RegionUsable}, Region{}, false},
	}

	for specIndex, spec := range specs {
		got, ok := spec.region.PageAligned(mem.PageSize)
		assert.Equal(t, spec.expOK, ok, "[spec %d]", specIndex)
		assert.Equal(t, spec.exp, got, "[spec %d]", specIndex)
	}
}
