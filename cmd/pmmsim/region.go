package main

import (
	"fmt"
	"strconv"
	"strings"

	"pmmkit/kernel/mem/pmm"
)

var regionKinds = map[string]pmm.RegionKind{
	"usable":   pmm.RegionUsable,
	"reserved": pmm.RegionReserved,
	"acpi":     pmm.RegionACPIReclaimable,
	"nvs":      pmm.RegionNVS,
}

// parseRegion parses a memory map entry in base:length:kind form. Numbers
// accept the usual Go prefixes (0x, 0o, 0b).
func parseRegion(spec string) (pmm.Region, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return pmm.Region{}, fmt.Errorf("invalid region %q: expected base:length:kind", spec)
	}

	base, err := strconv.ParseUint(parts[0], 0, 64)
	if err != nil {
		return pmm.Region{}, fmt.Errorf("invalid region %q: bad base: %w", spec, err)
	}

	length, err := strconv.ParseUint(parts[1], 0, 64)
	if err != nil {
		return pmm.Region{}, fmt.Errorf("invalid region %q: bad length: %w", spec, err)
	}

	if base+length < base {
		return pmm.Region{}, fmt.Errorf("invalid region %q: end overflows the address space", spec)
	}

	kind, ok := regionKinds[strings.ToLower(parts[2])]
	if !ok {
		return pmm.Region{}, fmt.Errorf("invalid region %q: unknown kind %q", spec, parts[2])
	}

	return pmm.Region{Base: base, Length: length, Kind: kind}, nil
}

func parseRegions(specs []string) ([]pmm.Region, error) {
	regions := make([]pmm.Region, 0, len(specs))
	for _, spec := range specs {
		region, err := parseRegion(spec)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}
