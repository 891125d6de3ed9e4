// Package mmap provides read-write memory mappings used as file store regions.
//
// # Usage
//
//	m, err := mmap.MapFile("arena.img", 1<<20)
//	if err != nil { ... }
//	defer m.Close()
//
//	region := m.Bytes()
//	_ = m.AdviseRandom()
//	_ = m.Sync()
//
// MapAnon creates an anonymous private mapping outside the Go heap.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), msync(2) and madvise(2)
//   - Windows: CreateFileMapping/MapViewOfFile and VirtualAlloc (AdviseRandom is a no-op)
//
// # Thread Safety
//
// Close is idempotent and protected by atomic operations. Callers must
// ensure nothing touches Bytes() after Close returns.
package mmap
