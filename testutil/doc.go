// Package testutil provides seeded random data for tests.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(seed)
//	payload := rng.Bytes(3 * fatfs.BlockSize)
//	name := rng.Name(fatfs.MaxNameLen)
package testutil
