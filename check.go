package fatfs

import (
	"fmt"

	"github.com/hupe1980/fatfs/internal/bitset"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/namespace"
)

// Check verifies the structural invariants of the image and returns the
// first violation as a *CorruptionError:
//   - entry 0 is the root directory and the current directory is live
//   - every live entry has a valid name and a live directory as parent
//   - no two live siblings of the same kind share a name
//   - directories own no blocks
//   - file chains are disjoint, end in EndOfChain and cover the file size
//   - every allocated block belongs to exactly one file chain
//   - the live entry count matches the control block
func (fs *FS) Check() error {
	err := fs.check()
	fs.opts.logger.LogCheck(err)
	return err
}

type siblingKey struct {
	parent int32
	kind   namespace.Kind
	name   string
}

func (fs *FS) check() error {
	names := fs.names
	hw := names.HighWater()

	root := names.Get(namespace.RootIndex)
	if root.Kind != namespace.KindDir || root.Parent != namespace.NoParent {
		return &CorruptionError{Block: -1, Entry: namespace.RootIndex, Reason: "entry 0 is not the root directory"}
	}
	if cwd := names.Cwd(); !names.Valid(cwd) || names.Kind(cwd) != namespace.KindDir {
		return &CorruptionError{Block: -1, Entry: cwd, Reason: "current directory is not a live directory"}
	}

	seen := make(map[siblingKey]int32, names.Count())
	reached := bitset.New(fs.blocks.Len())
	live := 1

	for i := 1; i < hw; i++ {
		idx := int32(i) //nolint:gosec // hw <= max fits int32
		e := names.Get(idx)
		if e.Kind == namespace.KindFree {
			continue
		}
		live++

		if !namespace.ValidName(e.Name) {
			return &CorruptionError{Block: -1, Entry: idx, Reason: fmt.Sprintf("invalid name %q", e.Name)}
		}
		if !names.Valid(e.Parent) || names.Kind(e.Parent) != namespace.KindDir {
			return &CorruptionError{Block: -1, Entry: idx, Reason: fmt.Sprintf("parent %d is not a live directory", e.Parent)}
		}
		key := siblingKey{parent: e.Parent, kind: e.Kind, name: e.Name}
		if other, dup := seen[key]; dup {
			return &CorruptionError{Block: -1, Entry: idx, Reason: fmt.Sprintf("duplicate name %q (entry %d)", e.Name, other)}
		}
		seen[key] = idx

		if e.Kind == namespace.KindDir {
			if e.StartBlock != fat.Free || e.Size != 0 {
				return &CorruptionError{Block: e.StartBlock, Entry: idx, Reason: "directory owns blocks"}
			}
			continue
		}

		if err := fs.checkChain(idx, e, reached); err != nil {
			return err
		}
	}

	if live != names.Count() {
		return &CorruptionError{Block: -1, Entry: -1, Reason: fmt.Sprintf("%d live entries, control block says %d", live, names.Count())}
	}

	if used := fs.blocks.Used(); used != reached.Count() {
		for i := range fs.blocks.Len() {
			b := int32(i) //nolint:gosec // block count fits int32
			if fs.blocks.Get(b) != fat.Free && !reached.Test(i) {
				return &CorruptionError{Block: b, Entry: -1, Reason: "allocated block is not reachable from any file"}
			}
		}
	}

	return nil
}

func (fs *FS) checkChain(idx int32, e namespace.Entry, reached *bitset.BitSet) error {
	blocks := 0
	for b := e.StartBlock; b != fat.Free; {
		if !fs.blocks.Valid(b) {
			return &CorruptionError{Block: b, Entry: idx, Reason: "chain points outside the table"}
		}
		next := fs.blocks.Get(b)
		if next == fat.Free {
			return &CorruptionError{Block: b, Entry: idx, Reason: "chain runs into a free block"}
		}
		if reached.TestAndSet(int(b)) {
			return &CorruptionError{Block: b, Entry: idx, Reason: "block is shared or the chain loops"}
		}
		blocks++
		if next == fat.EndOfChain {
			break
		}
		b = next
	}

	if e.Size < 0 || e.Size > int64(blocks)*BlockSize {
		return &CorruptionError{Block: e.StartBlock, Entry: idx, Reason: fmt.Sprintf("size %d exceeds chain of %d blocks", e.Size, blocks)}
	}
	return nil
}
