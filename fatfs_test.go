package fatfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func mustNew(t *testing.T, size int, opts ...Option) *FS {
	t.Helper()
	fs, err := New(make([]byte, size), opts...)
	require.NoError(t, err)
	return fs
}

func listing(fs *FS) []string {
	var out []string
	for d := range fs.ListDir() {
		out = append(out, d.Name+" ("+d.Kind.String()+")")
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("root only", func(t *testing.T) {
		fs := mustNew(t, 64<<10)

		assert.Empty(t, fs.ReadDir())
		assert.Equal(t, "/", fs.Getwd())
		assert.Equal(t, int64(0), fs.OccupiedSize())
		assert.Equal(t, int64(fs.Stats().TotalBlocks)*BlockSize, fs.TotalSize())

		st := fs.Stats()
		assert.Equal(t, 1, st.LiveEntries)
		assert.Equal(t, 1, st.HighWater)
		assert.Equal(t, 0, st.UsedBlocks)
		require.NoError(t, fs.Check())
	})

	t.Run("insufficient size leaves region untouched", func(t *testing.T) {
		for _, size := range []int{0, 1, 64, MinRegionSize - 1} {
			region := bytes.Repeat([]byte{0xAB}, size)
			fs, err := New(region)
			require.ErrorIs(t, err, ErrInsufficientSize)
			assert.Nil(t, fs)
			assert.Equal(t, bytes.Repeat([]byte{0xAB}, size), region)
		}
	})

	t.Run("minimum region", func(t *testing.T) {
		fs := mustNew(t, MinRegionSize)
		assert.Equal(t, int64(BlockSize), fs.TotalSize())
		assert.ErrorIs(t, fs.CreateFile("a"), ErrNoSpace)
	})

	t.Run("entry table percent", func(t *testing.T) {
		small := mustNew(t, 1<<20, WithEntryTablePercent(1)).Stats()
		large := mustNew(t, 1<<20, WithEntryTablePercent(50)).Stats()
		assert.Less(t, small.MaxEntries, large.MaxEntries)
		assert.Greater(t, small.TotalBlocks, large.TotalBlocks)
	})
}

func TestAttach(t *testing.T) {
	src := make([]byte, 64<<10)
	fs, err := New(src)
	require.NoError(t, err)
	require.NoError(t, fs.CreateDir("docs"))
	require.NoError(t, fs.ChangeDir("docs"))
	require.NoError(t, fs.CreateFile("a.txt"))
	require.NoError(t, fs.CreateFile("tmp"))
	require.NoError(t, fs.EraseFile("tmp"))

	f, err := fs.Open("a.txt")
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("0123456789"), 120)
	_, err = f.Write(payload)
	require.NoError(t, err)

	t.Run("relocated copy", func(t *testing.T) {
		dst := make([]byte, len(fs.Image())+4096)
		copy(dst, fs.Image())

		moved, err := Attach(dst)
		require.NoError(t, err)
		require.NoError(t, moved.Check())
		assert.Equal(t, "/docs", moved.Getwd())
		assert.Equal(t, fs.Stats(), moved.Stats())

		g, err := moved.Open("a.txt")
		require.NoError(t, err)
		got, err := g.ReadBytes(len(payload))
		require.NoError(t, err)
		assert.Equal(t, payload, got)

		// The erased slot is recycled after attach.
		before := moved.Stats().HighWater
		require.NoError(t, moved.CreateFile("b.txt"))
		assert.Equal(t, before, moved.Stats().HighWater)
	})

	t.Run("blank region", func(t *testing.T) {
		_, err := Attach(make([]byte, 4096))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated image", func(t *testing.T) {
		_, err := Attach(slices.Clone(fs.Image()[:len(fs.Image())-1]))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("tiny region", func(t *testing.T) {
		_, err := Attach(make([]byte, 10))
		assert.ErrorIs(t, err, ErrInsufficientSize)
	})

	setSlot := func(img []byte, b, v int32) {
		off := fs.geo.TableOffset + int(b)*4
		binary.LittleEndian.PutUint32(img[off:], uint32(v)) //nolint:gosec // round-trips int32
	}

	t.Run("corrupt allocation table", func(t *testing.T) {
		img := slices.Clone(fs.Image())
		start := fs.names.StartBlock(lookup(t, fs, "a.txt", namespace.KindFile))
		setSlot(img, start, 1<<30)

		_, err := Attach(img)
		require.ErrorIs(t, err, ErrCorrupt)
		var ce *CorruptionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "chain points outside the table", ce.Reason)
	})

	t.Run("leaked block", func(t *testing.T) {
		img := slices.Clone(fs.Image())
		setSlot(img, int32(fs.blocks.Len()-1), fat.EndOfChain) //nolint:gosec // small table

		_, err := Attach(img)
		require.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestNamespace(t *testing.T) {
	t.Run("directory tree and listing order", func(t *testing.T) {
		fs := mustNew(t, 64<<10)

		require.NoError(t, fs.CreateDir("dir1"))
		require.NoError(t, fs.CreateDir("dir2"))
		require.NoError(t, fs.ChangeDir("dir1"))
		require.NoError(t, fs.CreateDir("dir3"))
		require.NoError(t, fs.ChangeDir("dir3"))
		require.NoError(t, fs.CreateDir("dir4"))
		require.NoError(t, fs.CreateFile("file3.txt"))
		require.NoError(t, fs.CreateFile("file4.txt"))
		assert.Equal(t, "/dir1/dir3", fs.Getwd())
		require.NoError(t, fs.ChangeDir("/"))
		require.NoError(t, fs.CreateFile("file1.txt"))
		require.NoError(t, fs.CreateFile("file2.txt"))

		assert.Equal(t, []string{
			"dir1 (dir)",
			"dir2 (dir)",
			"file1.txt (file)",
			"file2.txt (file)",
		}, listing(fs))

		require.NoError(t, fs.EraseFile("file1.txt"))
		assert.ErrorIs(t, fs.EraseDir("dir1"), ErrNotEmpty)
		require.NoError(t, fs.EraseDir("dir2"))
		assert.Equal(t, []string{"dir1 (dir)", "file2.txt (file)"}, listing(fs))
		require.NoError(t, fs.Check())
	})

	t.Run("error kinds", func(t *testing.T) {
		fs := mustNew(t, 64<<10)
		require.NoError(t, fs.CreateFile("same"))
		require.NoError(t, fs.CreateDir("same"))

		tests := []struct {
			name string
			err  error
			want error
		}{
			{"empty name", fs.CreateFile(""), ErrInvalidName},
			{"reserved name", fs.CreateDir(".."), ErrInvalidName},
			{"bad character", fs.CreateFile("a/b"), ErrInvalidName},
			{"too long", fs.CreateFile(string(bytes.Repeat([]byte("n"), MaxNameLen+1))), ErrInvalidName},
			{"duplicate file", fs.CreateFile("same"), ErrAlreadyExists},
			{"duplicate dir", fs.CreateDir("same"), ErrAlreadyExists},
			{"erase missing file", fs.EraseFile("missing"), ErrNotFound},
			{"erase missing dir", fs.EraseDir("missing"), ErrNotFound},
			{"chdir missing", fs.ChangeDir("missing"), ErrNotFound},
			{"removeall missing", fs.RemoveAll("missing"), ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				require.ErrorIs(t, tt.err, tt.want)

				var opErr *OpError
				require.ErrorAs(t, tt.err, &opErr)
				assert.NotEmpty(t, opErr.Op)
			})
		}
	})

	t.Run("max length name", func(t *testing.T) {
		fs := mustNew(t, 64<<10)
		name := string(bytes.Repeat([]byte("n"), MaxNameLen))
		require.NoError(t, fs.CreateFile(name))
		_, err := fs.Stat(name)
		require.NoError(t, err)
	})

	t.Run("directory named where a file is expected", func(t *testing.T) {
		fs := mustNew(t, 64<<10)
		require.NoError(t, fs.CreateDir("d"))

		_, err := fs.Open("d")
		assert.ErrorIs(t, err, ErrIsDirectory)
		assert.ErrorIs(t, err, ErrNotFound)

		err = fs.EraseFile("d")
		assert.ErrorIs(t, err, ErrIsDirectory)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("parent navigation", func(t *testing.T) {
		fs := mustNew(t, 64<<10)
		require.NoError(t, fs.ChangeDir(".."))
		assert.Equal(t, "/", fs.Getwd())

		require.NoError(t, fs.CreateDir("a"))
		require.NoError(t, fs.ChangeDir("a"))
		require.NoError(t, fs.CreateDir("b"))
		require.NoError(t, fs.ChangeDir("b"))
		require.NoError(t, fs.ChangeDir(".."))
		assert.Equal(t, "/a", fs.Getwd())
	})

	t.Run("remove all", func(t *testing.T) {
		fs := mustNew(t, 64<<10)
		require.NoError(t, fs.CreateDir("tree"))
		require.NoError(t, fs.ChangeDir("tree"))
		require.NoError(t, fs.CreateDir("sub"))
		require.NoError(t, fs.ChangeDir("sub"))
		require.NoError(t, fs.CreateFile("big"))
		f, err := fs.Open("big")
		require.NoError(t, err)
		_, err = f.Write(make([]byte, 3*BlockSize))
		require.NoError(t, err)
		require.NoError(t, fs.ChangeDir("/"))
		require.NoError(t, fs.CreateFile("keep"))

		assert.Equal(t, int64(3*BlockSize), fs.OccupiedSize())
		require.NoError(t, fs.RemoveAll("tree"))
		assert.Equal(t, int64(0), fs.OccupiedSize())
		assert.Equal(t, []string{"keep (file)"}, listing(fs))
		assert.Equal(t, 2, fs.Stats().LiveEntries)
		require.NoError(t, fs.Check())

		// The handle outlives its entry.
		_, err = f.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrNotAFile)
	})

	t.Run("entry slots are recycled", func(t *testing.T) {
		fs := mustNew(t, 8192)
		maxEntries := fs.Stats().MaxEntries

		for round := range 5 {
			for i := 1; i < maxEntries; i++ {
				require.NoError(t, fs.CreateFile(string(rune('a'+i))), "round %d", round)
			}
			assert.ErrorIs(t, fs.CreateDir("full"), ErrNoSpace)
			for i := 1; i < maxEntries; i++ {
				require.NoError(t, fs.EraseFile(string(rune('a'+i))))
			}
		}
		assert.Equal(t, maxEntries, fs.Stats().HighWater)
	})
}

func TestStat(t *testing.T) {
	clock := newClock()
	fs := mustNew(t, 64<<10, WithClock(clock.Now))
	require.NoError(t, fs.CreateFile("f"))
	require.NoError(t, fs.CreateDir("d"))

	info, err := fs.Stat("f")
	require.NoError(t, err)
	assert.Equal(t, "f", info.Name)
	assert.False(t, info.IsDir())
	assert.Equal(t, clock.now, info.CreatedAt)

	info, err = fs.Stat("d")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = fs.Stat("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimestamps(t *testing.T) {
	clock := newClock()
	fs := mustNew(t, 64<<10, WithClock(clock.Now))
	created := clock.now

	require.NoError(t, fs.CreateDir("d"))
	clock.Advance(time.Second)
	require.NoError(t, fs.ChangeDir("d"))
	require.NoError(t, fs.ChangeDir(".."))

	info, err := fs.Stat("d")
	require.NoError(t, err)
	assert.Equal(t, created, info.CreatedAt)
	assert.Equal(t, created.Add(time.Second), info.AccessedAt)

	require.NoError(t, fs.CreateFile("f"))
	clock.Advance(time.Second)
	f, err := fs.Open("f")
	require.NoError(t, err)

	// Open stamps both times.
	attrs, err := f.Attributes()
	require.NoError(t, err)
	assert.Equal(t, clock.now, attrs.CreatedAt)
	assert.Equal(t, clock.now, attrs.AccessedAt)

	clock.Advance(time.Second)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	attrs, err = f.Attributes()
	require.NoError(t, err)
	assert.Equal(t, clock.now, attrs.AccessedAt)
	assert.Equal(t, clock.now.Add(-time.Second), attrs.CreatedAt)
}

func TestOccupancy(t *testing.T) {
	fs := mustNew(t, 64<<10)
	require.NoError(t, fs.CreateFile("a"))
	require.NoError(t, fs.CreateFile("b"))

	fa, err := fs.Open("a")
	require.NoError(t, err)
	fb, err := fs.Open("b")
	require.NoError(t, err)

	_, err = fa.Write(make([]byte, BlockSize+1))
	require.NoError(t, err)
	_, err = fb.Write(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(3*BlockSize), fs.OccupiedSize())

	require.NoError(t, fs.EraseFile("a"))
	assert.Equal(t, int64(BlockSize), fs.OccupiedSize())
	assert.Equal(t, 1, fs.Stats().UsedBlocks)
	require.NoError(t, fs.Check())
}

func TestOpError(t *testing.T) {
	err := &OpError{Op: "open", Name: "x", Err: ErrNotFound}
	assert.Equal(t, "fatfs: open x: not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))

	err = &OpError{Op: "init", Err: ErrInsufficientSize}
	assert.Equal(t, "fatfs: init: insufficient region size", err.Error())
}
