// Package cpu exposes the privileged instructions that the memory subsystem
// needs when it hits an unrecoverable error.
package cpu

// Halt disables interrupts and stops instruction execution.
func Halt()
