package allocator

import "pmmkit/kernel"

var (
	// ErrNoSuitableRegion is returned by Init when none of the usable memory
	// regions is large enough to host the allocator metadata. The kernel
	// cannot boot without a frame allocator.
	ErrNoSuitableRegion = &kernel.Error{Module: "pmm", Message: "no usable memory region can host the frame allocator metadata"}

	// ErrInvalidPageSize is returned by Init when the configured page size
	// is zero or not a power of 2.
	ErrInvalidPageSize = &kernel.Error{Module: "pmm", Message: "page size must be a non-zero power of 2"}

	// ErrAlreadyInitialized is returned by Init when called on an allocator
	// that is already serving requests.
	ErrAlreadyInitialized = &kernel.Error{Module: "pmm", Message: "frame allocator already initialized"}

	// ErrOutOfMemory is returned by AllocFrame when every tracked frame is
	// allocated.
	ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}

	// ErrOutOfRange is returned when a frame index lies past the end of the
	// region it is released to.
	ErrOutOfRange = &kernel.Error{Module: "pmm", Message: "frame index out of range"}

	// ErrDoubleFree is returned when releasing a frame that is already free.
	ErrDoubleFree = &kernel.Error{Module: "pmm", Message: "frame is already free"}

	// ErrInvalidFrame is returned by FreeFrame when the frame does not belong
	// to any managed region or holds the allocator's own metadata.
	ErrInvalidFrame = &kernel.Error{Module: "pmm", Message: "frame is not managed by the allocator"}

	errBitmapTooSmall = &kernel.Error{Module: "pmm", Message: "bitmap storage too small for region"}
)
