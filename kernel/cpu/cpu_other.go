//go:build !amd64

// Package cpu exposes the privileged instructions that the memory subsystem
// needs when it hits an unrecoverable error.
package cpu

// Halt spins forever; there is no halt instruction wired for this
// architecture.
func Halt() {
	for {
	}
}
