//go:build !linux

package main

import (
	"errors"

	"pmmkit/kernel/mem/pmm"
)

var errArenaUnsupported = errors.New("simulated physical memory requires linux")

func mapArena(_ []pmm.Region) ([]byte, uintptr, error) {
	return nil, 0, errArenaUnsupported
}

func unmapArena(_ []byte) error {
	return errArenaUnsupported
}
