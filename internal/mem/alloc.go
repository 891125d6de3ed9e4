package mem

import (
	"unsafe"
)

// PageSize is the alignment used for heap regions.
const PageSize = 4096

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte sits at an address divisible by align. align must be a power of two.
//
// Note: This function allocates up to align-1 extra bytes.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 1 {
		return make([]byte, size)
	}

	buf := make([]byte, size+align-1)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	mask := uintptr(align - 1)     //nolint:gosec // align is positive
	offset := int((uintptr(align) - uintptr(ptr)&mask) & mask) //nolint:gosec // offset < align

	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether b starts at an address divisible by align.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 || align <= 1 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))&uintptr(align-1) == 0 //nolint:gosec // unsafe is required for memory alignment
}
