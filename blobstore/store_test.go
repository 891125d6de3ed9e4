package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/fatfs/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s Store, name string) []byte {
	t.Helper()
	rc, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("PutOpen", func(t *testing.T) {
		data := []byte("hello world, this is a test blob")
		require.NoError(t, s.Put(ctx, "snap-001", bytes.NewReader(data), int64(len(data))))
		assert.Equal(t, data, readAll(t, s, "snap-001"))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "over", strings.NewReader("first"), 5))
		require.NoError(t, s.Put(ctx, "over", strings.NewReader("second"), 6))
		assert.Equal(t, "second", string(readAll(t, s, "over")))
	})

	t.Run("ShortWrite", func(t *testing.T) {
		require.Error(t, s.Put(ctx, "short", strings.NewReader("abc"), 10))
		_, err := s.Open(ctx, "short")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.Open(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		for _, name := range []string{"list/b", "list/a", "other"} {
			require.NoError(t, s.Put(ctx, name, strings.NewReader("x"), 1))
		}
		names, err := s.List(ctx, "list/")
		require.NoError(t, err)
		assert.Equal(t, []string{"list/a", "list/b"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "gone", strings.NewReader("x"), 1))
		require.NoError(t, s.Delete(ctx, "gone"))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Open(ctx, "gone")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, s.Put(cctx, "c", strings.NewReader("x"), 1), context.Canceled)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	assert.Equal(t, 5, s.Len())

	t.Run("Isolation", func(t *testing.T) {
		src := []byte("abc")
		require.NoError(t, s.Put(context.Background(), "iso", bytes.NewReader(src), 3))
		src[0] = 'z'
		got := readAll(t, s, "iso")
		got[1] = 'z'
		assert.Equal(t, "abc", string(readAll(t, s, "iso")))
	})
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	assert.Equal(t, dir, s.Root())
	testStore(t, s)

	t.Run("OnDisk", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(dir, "list", "a"))
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "leftover temp file %s", e.Name())
		}
	})

	t.Run("Escape", func(t *testing.T) {
		err := s.Put(context.Background(), "../outside", strings.NewReader("x"), 1)
		require.Error(t, err)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		names, err := NewLocalStore(filepath.Join(dir, "nope")).List(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestLocalStore_Faults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{name: "write", fault: fs.Fault{FailAfterBytes: 2}},
		{name: "sync", fault: fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{name: "close", fault: fs.Fault{FailAfterBytes: -1, FailOnClose: true}},
		{name: "rename", fault: fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("snap", tt.fault)
			s := newLocalStore(dir, ffs)

			err := s.Put(ctx, "snap", strings.NewReader("payload"), 7)
			require.ErrorIs(t, err, fs.ErrInjected)

			_, err = s.Open(ctx, "snap")
			require.ErrorIs(t, err, ErrNotFound)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "temporary file left behind")
		})
	}
}
