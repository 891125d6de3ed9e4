package conv

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// Integer is any fixed-width or platform integer.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Int converts v to int, failing if the value changes.
func Int[T Integer](v T) (int, error) {
	return convert[T, int](v)
}

// Int32 converts v to int32, failing if the value changes. Block numbers
// and entry indexes are int32 in the image.
func Int32[T Integer](v T) (int32, error) {
	return convert[T, int32](v)
}

// A conversion is lossless when it round-trips and keeps its sign.
func convert[From, To Integer](v From) (To, error) {
	r := To(v)
	if From(r) != v || (v < 0) != (r < 0) {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, v, r)
	}
	return r, nil
}
