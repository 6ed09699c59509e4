package mem

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// Pages returns the number of pageSize-sized pages that are required for
// storing this size. pageSize must be a power of 2.
func (s Size) Pages(pageSize Size) uint64 {
	return uint64((s + pageSize - 1) &^ (pageSize - 1) / pageSize)
}

// BitmapBytes returns the number of bytes needed to hold a bitmap with one bit per
// entry for the given number of entries.
func BitmapBytes(entries uint64) Size {
	return Size((entries + 7) >> 3)
}

// IsPowerOfTwo returns true if s is a non-zero power of 2.
func (s Size) IsPowerOfTwo() bool {
	return s != 0 && s&(s-1) == 0
}

// Align rounds v up to the next multiple of n which must be a power of 2.
func Align(v uintptr, n Size) uintptr {
	return (v + uintptr(n-1)) &^ uintptr(n-1)
}

// AlignDown rounds v down to the previous multiple of n which must be a power
// of 2.
func AlignDown(v uintptr, n Size) uintptr {
	return v &^ uintptr(n-1)
}
