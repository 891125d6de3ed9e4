// Package fatfs provides an in-memory hierarchical file store over a single
// caller-supplied byte region.
//
// The region is carved into a control block, a File-Allocation-Table of
// int32 slots, a flat table of fixed-size directory entries and a pool of
// 512-byte data blocks. Files are singly linked block chains; directories
// are entries that other entries name as their parent. Every position in the
// image is an offset from the region start, so a region can be copied,
// mapped at another address or snapshotted and attached again.
//
// # Quick Start
//
//	region := make([]byte, 1<<20)
//	fs, _ := fatfs.New(region)
//
//	_ = fs.CreateDir("logs")
//	_ = fs.ChangeDir("logs")
//	_ = fs.CreateFile("app.log")
//
//	f, _ := fs.Open("app.log")
//	defer f.Close()
//	_, _ = f.Write([]byte("Hello, World!"))
//	_, _ = f.Seek(0, fatfs.FromStart)
//	data, _ := f.ReadBytes(13)
//
// # Names and the current directory
//
// All name-based operations resolve a single path component under the
// current directory, which is shared by every caller of an FS. Names are
// 1 to 64 bytes of ASCII letters, digits, '.', '_' and '-'; ".." is
// reserved. A file and a directory may share a name.
//
// # Reads
//
// By default a read continues to the end of the last allocated block, so a
// partially filled final block may return bytes past the logical size. Use
// WithClampedReads(true) to stop at the logical end.
//
// # Seeking from the end
//
// FromEnd positions the cursor at size - offset: Seek(3, FromEnd) on a
// 10-byte file moves to byte 7.
//
// # Concurrency
//
// An FS performs no locking. Callers must serialize every operation on an
// FS and on the File handles opened from it.
//
// # Region acquisition
//
// The region package obtains heap, anonymous-mapped and file-mapped regions.
// The snapshot package saves a compressed image to a blobstore and restores
// it into a fresh region.
package fatfs
