package fatfs

import (
	"iter"
	"time"

	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/layout"
	"github.com/hupe1980/fatfs/internal/namespace"
)

// BlockSize is the size of a data block in bytes.
const BlockSize = layout.BlockSize

// MaxNameLen is the maximum length of a file or directory name in bytes.
const MaxNameLen = layout.MaxNameLen

// MinRegionSize is the smallest region New accepts: the control block, one
// directory entry and one data block with its allocation-table slot.
const MinRegionSize = layout.MinRegionSize

// Kind is the type of a directory entry.
type Kind uint8

const (
	// KindFile is a regular file.
	KindFile Kind = iota + 1
	// KindDir is a directory.
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

func (k Kind) internal() namespace.Kind {
	if k == KindDir {
		return namespace.KindDir
	}
	return namespace.KindFile
}

func kindOf(k namespace.Kind) Kind {
	if k == namespace.KindDir {
		return KindDir
	}
	return KindFile
}

// DirEntry is one item produced by ListDir.
type DirEntry struct {
	Name string
	Kind Kind
}

// IsDir reports whether the entry is a directory.
func (d DirEntry) IsDir() bool { return d.Kind == KindDir }

// FileInfo describes a live file or directory.
type FileInfo struct {
	Name       string
	Kind       Kind
	Size       int64
	CreatedAt  time.Time
	AccessedAt time.Time
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool { return fi.Kind == KindDir }

func infoOf(e namespace.Entry) FileInfo {
	return FileInfo{
		Name:       e.Name,
		Kind:       kindOf(e.Kind),
		Size:       e.Size,
		CreatedAt:  e.CreatedAt,
		AccessedAt: e.AccessedAt,
	}
}

// Stats summarizes arena occupancy.
type Stats struct {
	TotalBlocks int
	UsedBlocks  int
	MaxEntries  int
	LiveEntries int
	HighWater   int
}

// FS is a file store laid out inside a caller-supplied byte region.
//
// The region must stay valid for the lifetime of the FS; the FS holds no
// other resources and needs no teardown. An FS is not safe for concurrent
// use.
type FS struct {
	region []byte
	geo    layout.Geometry
	blocks *fat.Table
	names  *namespace.Table
	data   []byte
	opts   options
}

// New formats region as an empty file store with only the root directory.
// If the region is too small it returns ErrInsufficientSize without
// writing to the region.
func New(region []byte, optFns ...Option) (*FS, error) {
	o := applyOptions(optFns)

	g, err := layout.Plan(len(region), o.entryPercent)
	if err != nil {
		err = opError("init", "", err)
		o.logger.LogInit("init", len(region), 0, 0, err)
		return nil, err
	}

	fs := newFS(region, g, o)
	fs.control().Format(g)
	fs.blocks.Format()
	fs.names.Format()

	o.logger.LogInit("init", len(region), g.TotalBlocks, g.MaxEntries, nil)
	return fs, nil
}

// Attach opens a region that already holds a file store image, such as one
// produced by New in another region and copied, or restored from a snapshot.
// The image may end before the region does. An image that fails Check is
// rejected with ErrCorrupt.
func Attach(region []byte, optFns ...Option) (*FS, error) {
	o := applyOptions(optFns)

	if len(region) < layout.HeaderSize {
		err := opError("attach", "", layout.ErrInsufficientSize)
		o.logger.LogInit("attach", len(region), 0, 0, err)
		return nil, err
	}

	g, err := layout.NewControl(region).Geometry(len(region))
	if err != nil {
		err = opError("attach", "", err)
		o.logger.LogInit("attach", len(region), 0, 0, err)
		return nil, err
	}

	fs := newFS(region, g, o)
	if err := fs.names.Load(); err != nil {
		err = opError("attach", "", err)
		o.logger.LogInit("attach", len(region), 0, 0, err)
		return nil, err
	}
	// Chains are walked by every read; a wild link must not get that far.
	if err := fs.check(); err != nil {
		err = opError("attach", "", err)
		o.logger.LogInit("attach", len(region), 0, 0, err)
		return nil, err
	}

	o.logger.LogInit("attach", len(region), g.TotalBlocks, g.MaxEntries, nil)
	return fs, nil
}

func newFS(region []byte, g layout.Geometry, o options) *FS {
	blocks := fat.New(g.Table(region))
	return &FS{
		region: region,
		geo:    g,
		blocks: blocks,
		names:  namespace.New(g.Entries(region), g.MaxEntries, layout.NewControl(region), blocks, o.clock),
		data:   g.Data(region),
		opts:   o,
	}
}

func (fs *FS) control() layout.Control { return layout.NewControl(fs.region) }

// Image returns the part of the region holding the file store image. It
// aliases the region.
func (fs *FS) Image() []byte { return fs.region[:fs.geo.End:fs.geo.End] }

// CreateFile creates an empty file in the current directory.
func (fs *FS) CreateFile(name string) error {
	return fs.create(name, KindFile)
}

// CreateDir creates an empty directory in the current directory.
func (fs *FS) CreateDir(name string) error {
	return fs.create(name, KindDir)
}

func (fs *FS) create(name string, kind Kind) error {
	start := time.Now()
	_, err := fs.names.Create(name, kind.internal())
	err = opError("create", name, err)

	fs.opts.logger.LogCreate(kind, name, err)
	fs.opts.metricsCollector.RecordCreate(time.Since(start), err)
	return err
}

// EraseFile erases the file named name in the current directory and
// releases its blocks. Open handles on the file are not invalidated; using
// them afterwards returns ErrNotAFile until the slot is reused. If only a
// directory has that name the error matches both ErrNotFound and
// ErrIsDirectory.
func (fs *FS) EraseFile(name string) error {
	start := time.Now()
	freed, err := fs.names.EraseFile(name)
	if err != nil && fs.hasDir(name) {
		err = isDirectory(err)
	}
	err = opError("erase", name, err)

	fs.opts.logger.LogErase(KindFile, name, freed, err)
	fs.opts.metricsCollector.RecordErase(time.Since(start), err)
	return err
}

// EraseDir erases the empty directory named name in the current directory.
// It fails with ErrNotEmpty if the directory has any live children.
func (fs *FS) EraseDir(name string) error {
	start := time.Now()
	err := opError("erase", name, fs.names.EraseDir(name))

	fs.opts.logger.LogErase(KindDir, name, 0, err)
	fs.opts.metricsCollector.RecordErase(time.Since(start), err)
	return err
}

// RemoveAll erases the directory named name in the current directory
// together with every file and directory below it.
func (fs *FS) RemoveAll(name string) error {
	start := time.Now()
	entries, blocks, err := fs.names.RemoveAll(name)
	err = opError("removeall", name, err)

	fs.opts.logger.LogRemoveAll(name, entries, blocks, err)
	fs.opts.metricsCollector.RecordErase(time.Since(start), err)
	return err
}

// ChangeDir changes the current directory. "/" selects the root, ".." the
// parent (a no-op at the root) and any other name a child directory.
func (fs *FS) ChangeDir(name string) error {
	return opError("chdir", name, fs.names.ChangeDir(name))
}

// Getwd returns the absolute path of the current directory.
func (fs *FS) Getwd() string {
	return fs.names.Path(fs.names.Cwd())
}

// ListDir returns an iterator over the live children of the current
// directory in entry-table order. The directory's access time is stamped
// when ListDir is called.
func (fs *FS) ListDir() iter.Seq[DirEntry] {
	entries := fs.names.List()
	return func(yield func(DirEntry) bool) {
		for e := range entries {
			if !yield(DirEntry{Name: e.Name, Kind: kindOf(e.Kind)}) {
				return
			}
		}
	}
}

// ReadDir returns the live children of the current directory.
func (fs *FS) ReadDir() []DirEntry {
	var out []DirEntry
	for d := range fs.ListDir() {
		out = append(out, d)
	}
	return out
}

// Stat returns the attributes of the file named name in the current
// directory, or of the directory with that name if there is no such file.
func (fs *FS) Stat(name string) (FileInfo, error) {
	cwd := fs.names.Cwd()
	if idx, ok := fs.names.Lookup(cwd, name, namespace.KindFile); ok {
		return infoOf(fs.names.Get(idx)), nil
	}
	if idx, ok := fs.names.Lookup(cwd, name, namespace.KindDir); ok {
		return infoOf(fs.names.Get(idx)), nil
	}
	return FileInfo{}, opError("stat", name, namespace.ErrNotFound)
}

// Open returns a handle positioned at the start of the file named name in
// the current directory. Opening stamps the file's creation and access times.
func (fs *FS) Open(name string) (*File, error) {
	start := time.Now()
	f, err := fs.open(name)

	fs.opts.logger.LogOpen(name, err)
	fs.opts.metricsCollector.RecordOpen(time.Since(start), err)
	return f, err
}

func (fs *FS) open(name string) (*File, error) {
	idx, ok := fs.names.Lookup(fs.names.Cwd(), name, namespace.KindFile)
	if !ok {
		err := error(namespace.ErrNotFound)
		if fs.hasDir(name) {
			err = isDirectory(err)
		}
		return nil, opError("open", name, err)
	}

	fs.names.TouchAll(idx)
	return &File{
		fs:    fs,
		idx:   idx,
		name:  name,
		block: fs.names.StartBlock(idx),
	}, nil
}

func (fs *FS) hasDir(name string) bool {
	_, ok := fs.names.Lookup(fs.names.Cwd(), name, namespace.KindDir)
	return ok
}

// TotalSize returns the capacity of the data pool in bytes.
func (fs *FS) TotalSize() int64 {
	return fs.geo.Capacity()
}

// OccupiedSize returns the bytes held by allocated blocks.
func (fs *FS) OccupiedSize() int64 {
	return int64(fs.blocks.Used()) * BlockSize
}

// Stats returns block and entry occupancy.
func (fs *FS) Stats() Stats {
	return Stats{
		TotalBlocks: fs.geo.TotalBlocks,
		UsedBlocks:  fs.blocks.Used(),
		MaxEntries:  fs.geo.MaxEntries,
		LiveEntries: fs.names.Count(),
		HighWater:   fs.names.HighWater(),
	}
}
