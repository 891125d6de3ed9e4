// Package namespace manages the directory tree of an arena: a flat table of
// fixed-size entries linked to their parent directory by index.
//
// All name-based operations act relative to a single current directory that
// is stored in the arena control block. Erased entries are tombstoned and
// their slots are recycled lowest index first.
package namespace

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/layout"
)

var (
	// ErrInvalidName is returned for empty, overlong, reserved or ill-formed names.
	ErrInvalidName = errors.New("namespace: invalid name")
	// ErrNoSpace is returned when the entry table is full.
	ErrNoSpace = errors.New("namespace: entry table full")
	// ErrAlreadyExists is returned when a sibling of the same kind has the name.
	ErrAlreadyExists = errors.New("namespace: entry already exists")
	// ErrNotFound is returned when no live entry matches.
	ErrNotFound = errors.New("namespace: entry not found")
	// ErrNotEmpty is returned when erasing a directory with live children.
	ErrNotEmpty = errors.New("namespace: directory not empty")
	// ErrCorrupt is returned when the stored table contradicts the control block.
	ErrCorrupt = errors.New("namespace: corrupt entry table")
)

// ParentName is the reserved name for the parent directory.
const ParentName = ".."

// RootName is the name of the root directory.
const RootName = "/"

// ValidName reports whether name may be used for a file or directory:
// non-empty, at most layout.MaxNameLen bytes, only ASCII letters, digits,
// '.', '_' and '-', and not "..".
func ValidName(name string) bool {
	if name == "" || len(name) > layout.MaxNameLen || name == ParentName {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// Table is the entry table of an arena.
// It is not safe for concurrent use.
type Table struct {
	buf    []byte
	max    int
	ctl    layout.Control
	blocks *fat.Table
	free   *roaring.Bitmap // tombstoned slots below the high-water mark
	now    func() time.Time
}

// New returns a table over buf holding up to maxEntries entries. Call Format
// for a fresh region or Load for an existing image before use.
func New(buf []byte, maxEntries int, ctl layout.Control, blocks *fat.Table, now func() time.Time) *Table {
	if now == nil {
		now = time.Now
	}
	return &Table{
		buf:    buf,
		max:    maxEntries,
		ctl:    ctl,
		blocks: blocks,
		free:   roaring.New(),
		now:    now,
	}
}

func (t *Table) rec(idx int32) record {
	off := int(idx) * layout.EntrySize
	return record(t.buf[off : off+layout.EntrySize : off+layout.EntrySize])
}

// Format writes the root directory and resets the counters.
func (t *Table) Format() {
	t.rec(RootIndex).write(RootName, KindDir, NoParent, fat.Free, t.now())
	t.ctl.SetEntryCount(1)
	t.ctl.SetHighWater(1)
	t.ctl.SetCurrentDir(RootIndex)
	t.free.Clear()
}

// Load rebuilds the in-memory slot free-list from an existing image and
// verifies the live entry count.
func (t *Table) Load() error {
	root := t.rec(RootIndex)
	if root.kind() != KindDir || root.parent() != NoParent {
		return fmt.Errorf("%w: entry 0 is not the root directory", ErrCorrupt)
	}

	t.free.Clear()
	live := 0
	hw := t.ctl.HighWater()
	for i := range hw {
		idx := int32(i) //nolint:gosec // hw <= max fits int32
		switch t.rec(idx).kind() {
		case KindFree:
			t.free.Add(uint32(idx)) //nolint:gosec // non-negative
		case KindFile, KindDir:
			live++
		default:
			return fmt.Errorf("%w: entry %d has unknown kind %d", ErrCorrupt, idx, t.rec(idx).kind())
		}
	}
	if live != t.ctl.EntryCount() {
		return fmt.Errorf("%w: %d live entries, control block says %d", ErrCorrupt, live, t.ctl.EntryCount())
	}
	if cwd := t.ctl.CurrentDir(); t.rec(cwd).kind() != KindDir {
		return fmt.Errorf("%w: current directory %d is not a directory", ErrCorrupt, cwd)
	}
	return nil
}

// Count returns the number of live entries.
func (t *Table) Count() int { return t.ctl.EntryCount() }

// Max returns the capacity of the table.
func (t *Table) Max() int { return t.max }

// HighWater returns the number of slots ever handed out.
func (t *Table) HighWater() int { return t.ctl.HighWater() }

// Cwd returns the index of the current directory.
func (t *Table) Cwd() int32 { return t.ctl.CurrentDir() }

// Valid reports whether idx addresses a slot below the high-water mark.
func (t *Table) Valid(idx int32) bool {
	return idx >= 0 && int(idx) < t.ctl.HighWater()
}

// Get decodes the entry at idx.
func (t *Table) Get(idx int32) Entry { return t.rec(idx).decode(idx) }

// Kind returns the kind of the entry at idx.
func (t *Table) Kind(idx int32) Kind { return t.rec(idx).kind() }

// StartBlock returns the first block of the entry's chain.
func (t *Table) StartBlock(idx int32) int32 { return t.rec(idx).startBlock() }

// SetStartBlock sets the first block of the entry's chain.
func (t *Table) SetStartBlock(idx, b int32) { t.rec(idx).setStartBlock(b) }

// Size returns the logical size of the entry.
func (t *Table) Size(idx int32) int64 { return t.rec(idx).size() }

// SetSize sets the logical size of the entry.
func (t *Table) SetSize(idx int32, n int64) { t.rec(idx).setSize(n) }

// Touch stamps the access time of the entry.
func (t *Table) Touch(idx int32) { t.rec(idx).setAccessed(t.now()) }

// TouchAll stamps both the creation and the access time of the entry.
func (t *Table) TouchAll(idx int32) {
	now := t.now()
	r := t.rec(idx)
	r.setCreated(now)
	r.setAccessed(now)
}

// Lookup finds a live entry of the given kind named name under parent.
func (t *Table) Lookup(parent int32, name string, kind Kind) (int32, bool) {
	hw := t.ctl.HighWater()
	for i := range hw {
		idx := int32(i) //nolint:gosec // hw <= max fits int32
		r := t.rec(idx)
		if r.kind() == kind && r.parent() == parent && r.nameIs(name) {
			return idx, true
		}
	}
	return -1, false
}

// Create adds an entry of the given kind named name under the current directory.
// A file and a directory may share a name; two siblings of the same kind may not.
func (t *Table) Create(name string, kind Kind) (int32, error) {
	if !ValidName(name) {
		return -1, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if t.ctl.EntryCount() >= t.max {
		return -1, ErrNoSpace
	}
	cwd := t.ctl.CurrentDir()
	if _, ok := t.Lookup(cwd, name, kind); ok {
		return -1, fmt.Errorf("%w: %s %q", ErrAlreadyExists, kind, name)
	}

	var idx int32
	if !t.free.IsEmpty() {
		slot := t.free.Minimum()
		t.free.Remove(slot)
		idx = int32(slot) //nolint:gosec // slot < max fits int32
	} else {
		hw := t.ctl.HighWater()
		if hw >= t.max {
			return -1, ErrNoSpace
		}
		idx = int32(hw) //nolint:gosec // hw < max fits int32
		t.ctl.SetHighWater(hw + 1)
	}

	t.rec(idx).write(name, kind, cwd, fat.Free, t.now())
	t.ctl.SetEntryCount(t.ctl.EntryCount() + 1)
	return idx, nil
}

func (t *Table) tombstone(idx int32) {
	t.rec(idx).tombstone(fat.Free)
	t.free.Add(uint32(idx)) //nolint:gosec // non-negative
	t.ctl.SetEntryCount(t.ctl.EntryCount() - 1)
}

// EraseFile releases the chain of the file named name under the current
// directory and tombstones its entry. It returns the number of blocks freed.
func (t *Table) EraseFile(name string) (int, error) {
	idx, ok := t.Lookup(t.ctl.CurrentDir(), name, KindFile)
	if !ok {
		return 0, fmt.Errorf("%w: file %q", ErrNotFound, name)
	}
	released := t.blocks.Release(t.rec(idx).startBlock())
	t.tombstone(idx)
	return released, nil
}

// EraseDir tombstones the empty directory named name under the current directory.
func (t *Table) EraseDir(name string) error {
	idx, ok := t.Lookup(t.ctl.CurrentDir(), name, KindDir)
	if !ok {
		return fmt.Errorf("%w: directory %q", ErrNotFound, name)
	}
	if t.HasChildren(idx) {
		return fmt.Errorf("%w: %q", ErrNotEmpty, name)
	}
	t.tombstone(idx)
	return nil
}

// HasChildren reports whether any live entry has dir as its parent.
func (t *Table) HasChildren(dir int32) bool {
	hw := t.ctl.HighWater()
	for i := range hw {
		r := t.rec(int32(i)) //nolint:gosec // hw <= max fits int32
		if r.kind() != KindFree && r.parent() == dir {
			return true
		}
	}
	return false
}

// RemoveAll erases the directory named name under the current directory
// together with everything below it, releasing the chains of all files in
// the subtree. It returns the number of entries and blocks freed.
func (t *Table) RemoveAll(name string) (entries, blocks int, err error) {
	top, ok := t.Lookup(t.ctl.CurrentDir(), name, KindDir)
	if !ok {
		return 0, 0, fmt.Errorf("%w: directory %q", ErrNotFound, name)
	}

	doomed := roaring.New()
	doomed.Add(uint32(top)) //nolint:gosec // non-negative

	// Parents may sit at higher indexes than their children once slots are
	// recycled, so sweep until the set stops growing.
	hw := t.ctl.HighWater()
	for grew := true; grew; {
		grew = false
		for i := range hw {
			r := t.rec(int32(i)) //nolint:gosec // hw <= max fits int32
			if r.kind() == KindFree || doomed.Contains(uint32(i)) { //nolint:gosec // non-negative
				continue
			}
			if p := r.parent(); p >= 0 && doomed.Contains(uint32(p)) {
				doomed.Add(uint32(i)) //nolint:gosec // non-negative
				grew = true
			}
		}
	}

	it := doomed.Iterator()
	for it.HasNext() {
		idx := int32(it.Next()) //nolint:gosec // < hw fits int32
		if t.rec(idx).kind() == KindFile {
			blocks += t.blocks.Release(t.rec(idx).startBlock())
		}
		t.tombstone(idx)
		entries++
	}
	return entries, blocks, nil
}

// ChangeDir moves the current directory. "/" selects the root and ".."
// the parent (a no-op at the root); any other name must be a live
// directory under the current directory. The entered directory's access
// time is stamped.
func (t *Table) ChangeDir(name string) error {
	var target int32
	switch name {
	case RootName:
		target = RootIndex
	case ParentName:
		target = t.ctl.CurrentDir()
		if p := t.rec(target).parent(); p != NoParent {
			target = p
		}
	default:
		idx, ok := t.Lookup(t.ctl.CurrentDir(), name, KindDir)
		if !ok {
			return fmt.Errorf("%w: directory %q", ErrNotFound, name)
		}
		target = idx
	}
	t.ctl.SetCurrentDir(target)
	t.Touch(target)
	return nil
}

// List stamps the current directory's access time and returns an iterator
// over its live children in entry-table order. The iterator reads the table
// lazily and observes changes made while iterating.
func (t *Table) List() iter.Seq[Entry] {
	dir := t.ctl.CurrentDir()
	t.Touch(dir)
	return func(yield func(Entry) bool) {
		for i := 0; i < t.ctl.HighWater(); i++ {
			idx := int32(i) //nolint:gosec // hw <= max fits int32
			r := t.rec(idx)
			if r.kind() == KindFree || r.parent() != dir || idx == RootIndex {
				continue
			}
			if !yield(r.decode(idx)) {
				return
			}
		}
	}
}

// Path returns the absolute path of the directory or file at idx.
func (t *Table) Path(idx int32) string {
	if idx == RootIndex {
		return RootName
	}
	var parts []string
	for cur := idx; cur != RootIndex && cur != NoParent; cur = t.rec(cur).parent() {
		parts = append(parts, string(t.rec(cur).name()))
		if len(parts) > t.max {
			break // cycle in a corrupt image
		}
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}
