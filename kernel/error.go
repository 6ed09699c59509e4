package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values and callers compare them by identity. The memory
// subsystem reports errors before the Go allocator is usable, so errors.New
// and fmt.Errorf are not an option inside the kernel packages.
type Error struct {
	// The subsystem that raised the error (e.g. "pmm").
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
