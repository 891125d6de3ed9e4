package namespace

import (
	"encoding/binary"
	"time"

	"github.com/hupe1980/fatfs/internal/layout"
)

// Kind is the type of a directory entry.
type Kind uint8

const (
	// KindFree marks an unused or tombstoned slot.
	KindFree Kind = iota
	// KindFile marks a regular file.
	KindFile
	// KindDir marks a directory.
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "free"
	}
}

const (
	// RootIndex is the entry index of the root directory.
	RootIndex int32 = 0
	// NoParent is the parent index of the root directory.
	NoParent int32 = -1
)

// Entry is a decoded directory entry.
type Entry struct {
	Index      int32
	Name       string
	Kind       Kind
	StartBlock int32
	Size       int64
	Parent     int32
	CreatedAt  time.Time
	AccessedAt time.Time
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// record field offsets within an EntrySize-byte slot
const (
	recName       = 0
	recNameLen    = layout.MaxNameLen
	recKind       = recNameLen + 1
	recStartBlock = 68
	recParent     = 72
	recSize       = 80
	recCreated    = 88
	recAccessed   = 96
)

type record []byte

func (r record) kind() Kind { return Kind(r[recKind]) }

func (r record) name() []byte {
	n := min(int(r[recNameLen]), layout.MaxNameLen)
	return r[recName : recName+n]
}

func (r record) nameIs(name string) bool { return string(r.name()) == name }

func (r record) startBlock() int32 {
	return int32(binary.LittleEndian.Uint32(r[recStartBlock:])) //nolint:gosec // round-trips int32
}

func (r record) parent() int32 {
	return int32(binary.LittleEndian.Uint32(r[recParent:])) //nolint:gosec // round-trips int32
}

func (r record) size() int64 {
	return int64(binary.LittleEndian.Uint64(r[recSize:])) //nolint:gosec // round-trips int64
}

func (r record) created() int64 {
	return int64(binary.LittleEndian.Uint64(r[recCreated:])) //nolint:gosec // round-trips int64
}

func (r record) accessed() int64 {
	return int64(binary.LittleEndian.Uint64(r[recAccessed:])) //nolint:gosec // round-trips int64
}

func (r record) setStartBlock(b int32) {
	binary.LittleEndian.PutUint32(r[recStartBlock:], uint32(b)) //nolint:gosec // round-trips int32
}

func (r record) setParent(p int32) {
	binary.LittleEndian.PutUint32(r[recParent:], uint32(p)) //nolint:gosec // round-trips int32
}

func (r record) setSize(n int64) {
	binary.LittleEndian.PutUint64(r[recSize:], uint64(n)) //nolint:gosec // round-trips int64
}

func (r record) setCreated(t time.Time) {
	binary.LittleEndian.PutUint64(r[recCreated:], uint64(t.UnixNano())) //nolint:gosec // round-trips int64
}

func (r record) setAccessed(t time.Time) {
	binary.LittleEndian.PutUint64(r[recAccessed:], uint64(t.UnixNano())) //nolint:gosec // round-trips int64
}

func (r record) write(name string, kind Kind, parent int32, startBlock int32, now time.Time) {
	clear(r)
	copy(r[recName:recName+layout.MaxNameLen], name)
	r[recNameLen] = byte(len(name))
	r[recKind] = byte(kind)
	r.setStartBlock(startBlock)
	r.setParent(parent)
	r.setCreated(now)
	r.setAccessed(now)
}

func (r record) tombstone(noBlock int32) {
	r[recKind] = byte(KindFree)
	r.setStartBlock(noBlock)
	r.setParent(NoParent)
	r.setSize(0)
}

func (r record) decode(idx int32) Entry {
	return Entry{
		Index:      idx,
		Name:       string(r.name()),
		Kind:       r.kind(),
		StartBlock: r.startBlock(),
		Size:       r.size(),
		Parent:     r.parent(),
		CreatedAt:  time.Unix(0, r.created()),
		AccessedAt: time.Unix(0, r.accessed()),
	}
}
