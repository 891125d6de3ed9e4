package region_test

import (
	"path/filepath"
	"testing"

	"github.com/hupe1980/fatfs"
	"github.com/hupe1980/fatfs/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	tests := []struct {
		name    string
		acquire func(t *testing.T, size int) (*region.Region, error)
	}{
		{"heap", func(_ *testing.T, size int) (*region.Region, error) { return region.Heap(size) }},
		{"anonymous", func(_ *testing.T, size int) (*region.Region, error) { return region.Anonymous(size) }},
		{"file", func(t *testing.T, size int) (*region.Region, error) {
			return region.MapFile(filepath.Join(t.TempDir(), "arena.img"), size)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.acquire(t, 64<<10)
			require.NoError(t, err)
			assert.Equal(t, 64<<10, r.Len())

			fs, err := fatfs.New(r.Bytes())
			require.NoError(t, err)
			require.NoError(t, fs.CreateFile("a"))
			require.NoError(t, r.Sync())

			require.NoError(t, r.Close())
			require.NoError(t, r.Close())
			assert.Nil(t, r.Bytes())
		})
	}

	_, err := region.Heap(0)
	assert.ErrorIs(t, err, region.ErrInvalidSize)
}

func TestMapFile_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.img")

	r, err := region.MapFile(path, 32<<10)
	require.NoError(t, err)
	fs, err := fatfs.New(r.Bytes())
	require.NoError(t, err)
	require.NoError(t, fs.CreateFile("kept"))
	f, err := fs.Open("kept")
	require.NoError(t, err)
	_, err = f.Write([]byte("still here"))
	require.NoError(t, err)
	require.NoError(t, r.Sync())
	require.NoError(t, r.Close())

	r, err = region.MapFile(path, 32<<10)
	require.NoError(t, err)
	defer r.Close()

	fs, err = fatfs.Attach(r.Bytes())
	require.NoError(t, err)
	f, err = fs.Open("kept")
	require.NoError(t, err)
	got, err := f.ReadBytes(10)
	require.NoError(t, err)
	assert.Equal(t, "still here", string(got))
}

func TestBudget(t *testing.T) {
	b := region.NewBudget(100 << 10)

	r1, err := region.Heap(64<<10, region.WithBudget(b))
	require.NoError(t, err)
	assert.Equal(t, int64(64<<10), b.Used())

	_, err = region.Anonymous(64<<10, region.WithBudget(b))
	assert.ErrorIs(t, err, region.ErrBudgetExceeded)
	assert.Equal(t, int64(64<<10), b.Used())

	require.NoError(t, r1.Close())
	assert.Equal(t, int64(0), b.Used())

	r2, err := region.Anonymous(64<<10, region.WithBudget(b))
	require.NoError(t, err)
	require.NoError(t, r2.Close())
	assert.Equal(t, int64(100<<10), b.Limit())
	assert.Equal(t, int64(64<<10), b.Peak())
}
