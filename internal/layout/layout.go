package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/fatfs/internal/conv"
)

const (
	// BlockSize is the size of a data block in bytes.
	BlockSize = 512
	// MaxNameLen is the maximum length of an entry name in bytes.
	MaxNameLen = 64
	// HeaderSize is the size of the control block.
	HeaderSize = 64
	// SlotSize is the size of one allocation-table slot (int32).
	SlotSize = 4
	// EntrySize is the size of one encoded directory entry.
	EntrySize = 104
	// Version is the current image format version.
	Version = 1
	// DefaultEntryPercent is the share of the post-header space reserved for the entry table.
	DefaultEntryPercent = 10
	// MaxEntryPercent caps the entry table share so that data blocks remain.
	MaxEntryPercent = 90
)

// Magic identifies an initialized region.
var Magic = [8]byte{'F', 'A', 'T', 'A', 'R', 'E', 'N', 'A'}

var (
	// ErrInsufficientSize is returned when a region cannot host a minimal arena.
	ErrInsufficientSize = errors.New("layout: insufficient region size")
	// ErrBadMagic is returned when attaching a region that holds no arena image.
	ErrBadMagic = errors.New("layout: bad magic")
	// ErrUnsupportedVersion is returned for images written by an unknown format version.
	ErrUnsupportedVersion = errors.New("layout: unsupported version")
	// ErrCorrupt is returned when the stored geometry does not fit the region.
	ErrCorrupt = errors.New("layout: corrupt control block")
)

// control block field offsets
const (
	offMagic       = 0
	offVersion     = 8
	offBlockSize   = 12
	offMaxEntries  = 16
	offTotalBlocks = 20
	offEntryCount  = 24
	offHighWater   = 28
	offCurrentDir  = 32
	offTable       = 40
	offEntries     = 48
	offData        = 56
)

// MinRegionSize is the smallest region that can host one entry and one block.
const MinRegionSize = HeaderSize + EntrySize + SlotSize + BlockSize

// Geometry describes how a region is partitioned.
type Geometry struct {
	MaxEntries    int
	TotalBlocks   int
	TableOffset   int
	EntriesOffset int
	DataOffset    int
	End           int
}

// Plan computes the geometry for a region of the given size.
//
// The entry table takes entryPercent percent of the space after the control
// block (at least one entry); the remainder is split into data blocks, each
// paired with one allocation-table slot. Plan does not touch any memory.
func Plan(size, entryPercent int) (Geometry, error) {
	if entryPercent <= 0 {
		entryPercent = DefaultEntryPercent
	}
	entryPercent = min(entryPercent, MaxEntryPercent)

	if size < MinRegionSize {
		return Geometry{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrInsufficientSize, size, MinRegionSize)
	}

	remaining := size - HeaderSize
	// Entry and block indexes are int32 in the tables.
	maxEntries := min(max(1, remaining*entryPercent/100/EntrySize), math.MaxInt32)

	afterEntries := remaining - maxEntries*EntrySize
	totalBlocks := min(afterEntries/(BlockSize+SlotSize), math.MaxInt32)
	if totalBlocks < 1 {
		return Geometry{}, fmt.Errorf("%w: %d bytes leave no room for a data block", ErrInsufficientSize, size)
	}

	g := Geometry{
		MaxEntries:  maxEntries,
		TotalBlocks: totalBlocks,
		TableOffset: HeaderSize,
	}
	g.EntriesOffset = g.TableOffset + totalBlocks*SlotSize
	g.DataOffset = g.EntriesOffset + maxEntries*EntrySize
	g.End = g.DataOffset + totalBlocks*BlockSize

	return g, nil
}

// Table returns the allocation-table sub-region.
func (g Geometry) Table(region []byte) []byte {
	return region[g.TableOffset:g.EntriesOffset:g.EntriesOffset]
}

// Entries returns the entry-table sub-region.
func (g Geometry) Entries(region []byte) []byte {
	return region[g.EntriesOffset:g.DataOffset:g.DataOffset]
}

// Data returns the data-pool sub-region.
func (g Geometry) Data(region []byte) []byte {
	return region[g.DataOffset:g.End:g.End]
}

// Capacity returns the data pool size in bytes.
func (g Geometry) Capacity() int64 {
	return int64(g.TotalBlocks) * BlockSize
}

// Control is a view over the control block of a region.
// Mutable engine state (entry count, high-water mark, current directory)
// lives here so the region alone describes the arena.
type Control struct {
	buf []byte
}

// NewControl returns a view over the first HeaderSize bytes of region.
func NewControl(region []byte) Control {
	return Control{buf: region[:HeaderSize:HeaderSize]}
}

// Format writes a fresh control block for g.
func (c Control) Format(g Geometry) {
	clear(c.buf)
	copy(c.buf[offMagic:], Magic[:])
	le := binary.LittleEndian
	le.PutUint32(c.buf[offVersion:], Version)
	le.PutUint32(c.buf[offBlockSize:], BlockSize)
	le.PutUint32(c.buf[offMaxEntries:], uint32(g.MaxEntries))   //nolint:gosec // bounded by Plan
	le.PutUint32(c.buf[offTotalBlocks:], uint32(g.TotalBlocks)) //nolint:gosec // bounded by Plan
	le.PutUint64(c.buf[offTable:], uint64(g.TableOffset))       //nolint:gosec // non-negative
	le.PutUint64(c.buf[offEntries:], uint64(g.EntriesOffset))   //nolint:gosec // non-negative
	le.PutUint64(c.buf[offData:], uint64(g.DataOffset))         //nolint:gosec // non-negative
}

// Geometry decodes and validates the geometry stored in the control block
// against the size of the region it was read from.
func (c Control) Geometry(regionSize int) (Geometry, error) {
	if !bytes.Equal(c.buf[offMagic:offMagic+len(Magic)], Magic[:]) {
		return Geometry{}, ErrBadMagic
	}
	le := binary.LittleEndian
	if v := le.Uint32(c.buf[offVersion:]); v != Version {
		return Geometry{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	if bs := le.Uint32(c.buf[offBlockSize:]); bs != BlockSize {
		return Geometry{}, fmt.Errorf("%w: block size %d", ErrCorrupt, bs)
	}

	// Entry and block indexes are int32 in the tables.
	entries32, err := conv.Int32(le.Uint32(c.buf[offMaxEntries:]))
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	blocks32, err := conv.Int32(le.Uint32(c.buf[offTotalBlocks:]))
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	maxEntries, totalBlocks := int(entries32), int(blocks32)
	tableOff, err := conv.Int(le.Uint64(c.buf[offTable:]))
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	entriesOff, err := conv.Int(le.Uint64(c.buf[offEntries:]))
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	dataOff, err := conv.Int(le.Uint64(c.buf[offData:]))
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	g := Geometry{
		MaxEntries:    maxEntries,
		TotalBlocks:   totalBlocks,
		TableOffset:   tableOff,
		EntriesOffset: entriesOff,
		DataOffset:    dataOff,
		End:           dataOff + totalBlocks*BlockSize,
	}

	switch {
	case maxEntries < 1 || totalBlocks < 1:
		return Geometry{}, fmt.Errorf("%w: empty tables", ErrCorrupt)
	case tableOff != HeaderSize,
		entriesOff != tableOff+totalBlocks*SlotSize,
		dataOff != entriesOff+maxEntries*EntrySize:
		return Geometry{}, fmt.Errorf("%w: inconsistent offsets", ErrCorrupt)
	case g.End > regionSize:
		return Geometry{}, fmt.Errorf("%w: image of %d bytes exceeds region of %d", ErrCorrupt, g.End, regionSize)
	}

	if hw := c.HighWater(); hw < 1 || hw > maxEntries {
		return Geometry{}, fmt.Errorf("%w: high-water mark %d", ErrCorrupt, hw)
	}
	if n := c.EntryCount(); n < 1 || n > c.HighWater() {
		return Geometry{}, fmt.Errorf("%w: entry count %d", ErrCorrupt, n)
	}
	if cwd := c.CurrentDir(); cwd < 0 || int(cwd) >= c.HighWater() {
		return Geometry{}, fmt.Errorf("%w: current directory %d", ErrCorrupt, cwd)
	}

	return g, nil
}

// EntryCount returns the number of live entries.
func (c Control) EntryCount() int {
	return int(binary.LittleEndian.Uint32(c.buf[offEntryCount:]))
}

// SetEntryCount stores the number of live entries.
func (c Control) SetEntryCount(n int) {
	binary.LittleEndian.PutUint32(c.buf[offEntryCount:], uint32(n)) //nolint:gosec // bounded by MaxEntries
}

// HighWater returns the number of entry slots ever handed out.
func (c Control) HighWater() int {
	return int(binary.LittleEndian.Uint32(c.buf[offHighWater:]))
}

// SetHighWater stores the entry-table high-water mark.
func (c Control) SetHighWater(n int) {
	binary.LittleEndian.PutUint32(c.buf[offHighWater:], uint32(n)) //nolint:gosec // bounded by MaxEntries
}

// CurrentDir returns the entry index of the current directory.
func (c Control) CurrentDir() int32 {
	return int32(binary.LittleEndian.Uint32(c.buf[offCurrentDir:])) //nolint:gosec // stored from int32
}

// SetCurrentDir stores the entry index of the current directory.
func (c Control) SetCurrentDir(idx int32) {
	binary.LittleEndian.PutUint32(c.buf[offCurrentDir:], uint32(idx)) //nolint:gosec // round-trips int32
}
