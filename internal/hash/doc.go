// Package hash provides the CRC32-Castagnoli checksum that guards snapshot
// images in their frame and in transit to object stores.
//
//	sum := hash.Of(image)
//	if !sum.Matches(restored) { ... }
//	header := sum.Base64() // x-amz-checksum-crc32c
package hash
