// Package snapshot saves and restores file store images through a
// blobstore.Store.
//
// A snapshot is a single framed blob:
//
//	[magic "FATSNAP1"][compression u8][reserved 3][raw length u64][crc32c u32][payload]
//
// Integers are little-endian. The CRC32-C covers the uncompressed image, so
// a restore detects both transport damage and decompression bugs. The
// payload is LZ4 or ZSTD compressed when that saves at least ten percent,
// and stored as is otherwise.
//
// # Usage
//
//	store := blobstore.NewLocalStore("/var/lib/fatfs")
//	if err := snapshot.Save(ctx, store, "arena-001", fs, snapshot.WithCompression(snapshot.CompressionZSTD)); err != nil {
//	    return err
//	}
//
//	restored, err := snapshot.Restore(ctx, store, "arena-001", make([]byte, 1<<20))
package snapshot
