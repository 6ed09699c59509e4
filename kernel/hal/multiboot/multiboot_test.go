package multiboot

import (
	"testing"
	"unsafe"

	"pmmkit/kernel/mem/pmm"
)

func TestFindTagByType(t *testing.T) {
	specs := []struct {
		tagType tagType
		expSize uint32
	}{
		{tagBootCmdLine, 1},
		{tagMemoryMap, 152},
	}

	SetInfoPtr(uintptr(unsafe.Pointer(&multibootInfoTestData[0])))

	for specIndex, spec := range specs {
		_, size := findTagByType(spec.tagType)

		if size != spec.expSize {
			t.Errorf("[spec %d] expected tag size for tag type %d to be %d; got %d", specIndex, spec.tagType, spec.expSize, size)
		}
	}
}

func TestFindTagByTypeWithMissingTag(t *testing.T) {
	SetInfoPtr(uintptr(unsafe.Pointer(&multibootInfoTestData[0])))

	if offset, size := findTagByType(tagModules); offset != 0 || size != 0 {
		t.Fatalf("expected findTagByType to return (0,0) for missing tag; got (%d, %d)", offset, size)
	}
}

func TestVisitMemRegions(t *testing.T) {
	specs := []struct {
		expPhys uint64
		expLen  uint64
		expType MemoryEntryType
	}{
		// This region type is actually MemAvailable but we patch it to
		// a bogus value to test whether it gets flagged as reserved
		{0, 654336, MemReserved},
		{654336, 1024, MemReserved},
		{983040, 65536, MemReserved},
		{1048576, 133038080, MemAvailable},
		{134086656, 131072, MemReserved},
		{4294705152, 262144, MemReserved},
	}

	var visitCount int

	SetInfoPtr(uintptr(unsafe.Pointer(&emptyInfoData[0])))
	VisitMemRegions(func(_ *MemoryMapEntry) bool {
		visitCount++
		return true
	})

	if visitCount != 0 {
		t.Fatal("expected visitor not to be invoked when no memory map tag is present")
	}

	// Set a bogus type for the first entry in the map
	SetInfoPtr(uintptr(unsafe.Pointer(&multibootInfoTestData[0])))
	multibootInfoTestData[firstEntryTypeOffset] = 0xFF
	defer func() {
		multibootInfoTestData[firstEntryTypeOffset] = byte(MemAvailable)
	}()

	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		if entry.PhysAddress != specs[visitCount].expPhys {
			t.Errorf("[visit %d] expected physical address to be %x; got %x", visitCount, specs[visitCount].expPhys, entry.PhysAddress)
		}
		if entry.Length != specs[visitCount].expLen {
			t.Errorf("[visit %d] expected region len to be %x; got %x", visitCount, specs[visitCount].expLen, entry.Length)
		}
		if entry.Type != specs[visitCount].expType {
			t.Errorf("[visit %d] expected region type to be %d; got %d", visitCount, specs[visitCount].expType, entry.Type)
		}
		visitCount++
		return true
	})

	if visitCount != len(specs) {
		t.Errorf("expected the visitor func to be invoked %d times; got %d", len(specs), visitCount)
	}

	// Abort the scan after the first entry
	visitCount = 0
	VisitMemRegions(func(_ *MemoryMapEntry) bool {
		visitCount++
		return false
	})

	if visitCount != 1 {
		t.Errorf("expected the visitor func to be invoked once; got %d", visitCount)
	}
}

func TestMemRegions(t *testing.T) {
	SetInfoPtr(uintptr(unsafe.Pointer(&multibootInfoTestData[0])))

	exp := []pmm.Region{
		{Base: 0, Length: 0x9fc00, Kind: pmm.RegionUsable},
		{Base: 0x9fc00, Length: 0x400, Kind: pmm.RegionReserved},
		{Base: 0xf0000, Length: 0x10000, Kind: pmm.RegionReserved},
		{Base: 0x100000, Length: 0x7ee0000, Kind: pmm.RegionUsable},
		{Base: 0x7fe0000, Length: 0x20000, Kind: pmm.RegionReserved},
		{Base: 0xfffc0000, Length: 0x40000, Kind: pmm.RegionReserved},
	}

	var storage [16]pmm.Region
	regions := MemRegions(storage[:0])
	if len(regions) != len(exp) {
		t.Fatalf("expected %d regions; got %d", len(exp), len(regions))
	}

	for i, region := range regions {
		if region != exp[i] {
			t.Errorf("[region %d] expected %+v; got %+v", i, exp[i], region)
		}
	}

	// Entries that do not fit in the supplied storage are dropped
	if regions = MemRegions(storage[:0:2]); len(regions) != 2 {
		t.Fatalf("expected 2 regions; got %d", len(regions))
	}
	if regions[1] != exp[1] {
		t.Errorf("expected %+v; got %+v", exp[1], regions[1])
	}

	SetInfoPtr(uintptr(unsafe.Pointer(&emptyInfoData[0])))
	if regions = MemRegions(nil); len(regions) != 0 {
		t.Errorf("expected no regions when the memory map tag is missing; got %d", len(regions))
	}
}

func TestRegionKind(t *testing.T) {
	specs := []struct {
		in  MemoryEntryType
		exp pmm.RegionKind
	}{
		{MemAvailable, pmm.RegionUsable},
		{MemReserved, pmm.RegionReserved},
		{MemAcpiReclaimable, pmm.RegionACPIReclaimable},
		{MemNvs, pmm.RegionNVS},
		{memUnknown, pmm.RegionReserved},
	}

	for specIndex, spec := range specs {
		if got := regionKind(spec.in); got != spec.exp {
			t.Errorf("[spec %d] expected kind %s; got %s", specIndex, spec.exp, got)
		}
	}
}

// firstEntryTypeOffset is the offset of the type field of the first memory
// map entry in multibootInfoTestData.
const firstEntryTypeOffset = 56

var (
	emptyInfoData = []byte{
		0, 0, 0, 0, // size
		0, 0, 0, 0, // reserved
		0, 0, 0, 0, // tag with type zero and length zero
		0, 0, 0, 0,
	}

	// Boot command line and memory map tags captured when running under
	// qemu with 128M of RAM.
	multibootInfoTestData = []byte{
		192, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 9, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 6, 0, 0, 0, 160, 0, 0, 0,
		24, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 252, 9, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0,
		0, 252, 9, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0, 0, 0, 0,
		2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 15, 0, 0, 0, 0, 0,
		0, 0, 1, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 16, 0, 0, 0, 0, 0, 0, 0, 238, 7, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 254, 7, 0, 0, 0, 0,
		0, 0, 2, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 252, 255, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0, 0, 0,
		2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 8, 0, 0, 0,
	}
)
