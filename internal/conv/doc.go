// Package conv provides checked integer conversions for values crossing the
// boundary between Go ints and the fixed-width fields of an arena image.
package conv
