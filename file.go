package fatfs

import (
	"io"
	"time"

	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/namespace"
)

// Whence is the origin of a Seek.
type Whence int

const (
	// FromStart seeks relative to byte 0.
	FromStart Whence = iota
	// FromCurrent seeks relative to the current position.
	FromCurrent
	// FromEnd seeks to size - offset.
	FromEnd
)

// Attributes is the metadata of an open file.
type Attributes struct {
	Size       int64
	CreatedAt  time.Time
	AccessedAt time.Time
}

// File is a cursor over one file of an FS. Handles on the same file keep
// independent positions and share the file's contents and size.
//
// File implements io.Reader and io.Writer. Its Seek takes a Whence rather
// than an io.Seeker origin because FromEnd subtracts the offset.
type File struct {
	fs     *FS
	idx    int32
	name   string
	block  int32 // backs pos, or fat.Free past the allocated chain
	pos    int64
	closed bool
}

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
)

// Name returns the name the file was opened with.
func (f *File) Name() string { return f.name }

// Position returns the current byte offset.
func (f *File) Position() int64 { return f.pos }

// Close releases the handle. It has no effect on the file.
func (f *File) Close() error {
	if f.closed {
		return &OpError{Op: "close", Name: f.name, Err: ErrClosed}
	}
	f.closed = true
	return nil
}

func (f *File) check(op string) error {
	if f.closed {
		return &OpError{Op: op, Name: f.name, Err: ErrClosed}
	}
	if f.fs.names.Kind(f.idx) != namespace.KindFile {
		return &OpError{Op: op, Name: f.name, Err: ErrNotAFile}
	}
	return nil
}

// blockIndex returns the logical block holding byte pos.
func blockIndex(pos int64) int {
	return int(pos / BlockSize)
}

// resolve refreshes a stale Free cursor block, which happens when another
// handle extended the chain past this handle's position.
func (f *File) resolve() {
	if f.block == fat.Free {
		f.block = f.fs.blocks.BlockAt(f.fs.names.StartBlock(f.idx), blockIndex(f.pos))
	}
}

func (f *File) blockData(b int32) []byte {
	off := int(b) * BlockSize
	return f.fs.data[off : off+BlockSize : off+BlockSize]
}

// extend allocates a block for the current position and links it to the
// end of the chain, or makes it the chain start for an empty file.
func (f *File) extend() error {
	b, err := f.fs.blocks.Allocate()
	if err != nil {
		return err
	}
	logical := blockIndex(f.pos)
	start := f.fs.names.StartBlock(f.idx)
	if logical == 0 || start == fat.Free {
		f.fs.names.SetStartBlock(f.idx, b)
	} else {
		f.fs.blocks.Append(f.fs.blocks.BlockAt(start, logical-1), b)
	}
	f.block = b
	return nil
}

// Write writes p at the current position, allocating blocks as the cursor
// moves past the end of the chain. The file size becomes the larger of its
// old size and the position after the write, so overwriting bytes before
// the end never grows the file. If the block pool runs out,
// Write returns the bytes already written together with ErrNoSpace; those
// bytes stay written.
func (f *File) Write(p []byte) (int, error) {
	start := time.Now()
	if err := f.check("write"); err != nil {
		f.fs.opts.metricsCollector.RecordWrite(0, time.Since(start), err)
		return 0, err
	}

	n := 0
	var err error
	for n < len(p) {
		f.resolve()
		if f.block == fat.Free {
			if err = f.extend(); err != nil {
				break
			}
		}
		off := int(f.pos % BlockSize)
		c := copy(f.blockData(f.block)[off:], p[n:])
		n += c
		f.pos += int64(c)
		if f.pos%BlockSize == 0 {
			f.block = f.fs.blocks.Next(f.block)
		}
	}

	if f.pos > f.fs.names.Size(f.idx) {
		f.fs.names.SetSize(f.idx, f.pos)
	}
	f.fs.names.Touch(f.idx)

	err = opError("write", f.name, err)
	f.fs.opts.logger.LogWrite(f.idx, len(p), n, err)
	f.fs.opts.metricsCollector.RecordWrite(n, time.Since(start), err)
	return n, err
}

func (f *File) read(p []byte) int {
	limit := len(p)
	if f.fs.opts.clampReads {
		limit = int(max(0, min(int64(limit), f.fs.names.Size(f.idx)-f.pos)))
	}

	n := 0
	for n < limit {
		f.resolve()
		if f.block == fat.Free {
			break
		}
		off := int(f.pos % BlockSize)
		c := copy(p[n:limit], f.blockData(f.block)[off:])
		n += c
		f.pos += int64(c)
		if f.pos%BlockSize == 0 {
			f.block = f.fs.blocks.Next(f.block)
		}
	}
	f.fs.names.Touch(f.idx)
	return n
}

// Read reads up to len(p) bytes from the current position. It returns
// io.EOF once the allocated chain is exhausted (or, with clamped reads,
// the logical end is reached).
func (f *File) Read(p []byte) (int, error) {
	start := time.Now()
	if err := f.check("read"); err != nil {
		f.fs.opts.metricsCollector.RecordRead(0, time.Since(start), err)
		return 0, err
	}

	n := f.read(p)
	var err error
	if n == 0 && len(p) > 0 {
		err = io.EOF
	}
	f.fs.opts.metricsCollector.RecordRead(n, time.Since(start), nil)
	return n, err
}

// readable returns how many bytes a read from the current position can
// return at most: up to the end of the chain, or of the file with clamped
// reads.
func (f *File) readable() int {
	end := int64(f.fs.blocks.ChainLen(f.fs.names.StartBlock(f.idx))) * BlockSize
	if f.fs.opts.clampReads {
		end = f.fs.names.Size(f.idx)
	}
	return int(max(0, end-f.pos))
}

// ReadBytes reads up to maxLen bytes from the current position, stopping
// early when the allocated chain is exhausted. The result is never larger
// than what the chain holds, whatever maxLen is.
func (f *File) ReadBytes(maxLen int) ([]byte, error) {
	start := time.Now()
	if err := f.check("read"); err != nil {
		f.fs.opts.metricsCollector.RecordRead(0, time.Since(start), err)
		return nil, err
	}
	if maxLen < 0 {
		err := &OpError{Op: "read", Name: f.name, Err: ErrInvalidArgument}
		f.fs.opts.metricsCollector.RecordRead(0, time.Since(start), err)
		return nil, err
	}

	buf := make([]byte, min(maxLen, f.readable()))
	n := f.read(buf)
	f.fs.opts.metricsCollector.RecordRead(n, time.Since(start), nil)
	return buf[:n], nil
}

// Seek moves the cursor and returns the new position. FromEnd computes
// size - offset. A target outside [0, size] fails with ErrInvalidArgument
// and leaves the cursor unchanged.
func (f *File) Seek(offset int64, whence Whence) (int64, error) {
	start := time.Now()
	pos, err := f.seek(offset, whence)
	f.fs.opts.metricsCollector.RecordSeek(time.Since(start), err)
	return pos, err
}

func (f *File) seek(offset int64, whence Whence) (int64, error) {
	if err := f.check("seek"); err != nil {
		return f.pos, err
	}

	size := f.fs.names.Size(f.idx)
	var target int64
	switch whence {
	case FromStart:
		target = offset
	case FromCurrent:
		target = f.pos + offset
	case FromEnd:
		target = size - offset
	default:
		return f.pos, &OpError{Op: "seek", Name: f.name, Err: ErrInvalidArgument}
	}
	if target < 0 || target > size {
		return f.pos, &OpError{Op: "seek", Name: f.name, Err: ErrInvalidArgument}
	}

	f.pos = target
	f.block = f.fs.blocks.BlockAt(f.fs.names.StartBlock(f.idx), blockIndex(target))
	f.fs.names.Touch(f.idx)
	return f.pos, nil
}

// Attributes returns the size and timestamps of the file.
func (f *File) Attributes() (Attributes, error) {
	if err := f.check("attributes"); err != nil {
		return Attributes{}, err
	}
	e := f.fs.names.Get(f.idx)
	return Attributes{
		Size:       e.Size,
		CreatedAt:  e.CreatedAt,
		AccessedAt: e.AccessedAt,
	}, nil
}
