// Package layout plans and describes the on-region layout of an arena.
//
// A region is carved into four adjacent sub-regions:
//
//	[ control block : HeaderSize bytes                ]
//	[ allocation table : TotalBlocks × SlotSize bytes ]
//	[ entry table      : MaxEntries × EntrySize bytes ]
//	[ data pool        : TotalBlocks × BlockSize bytes]
//
// All offsets are relative to the start of the region and are stored in the
// control block, so an image can be copied to a different address (or to a
// file, or to object storage) and attached again. Multi-byte integers are
// little-endian.
package layout
