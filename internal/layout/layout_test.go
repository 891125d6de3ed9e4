package layout

import (
	"encoding/binary"
	"testing"

	"github.com/hupe1980/fatfs/internal/conv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	t.Run("minimum region", func(t *testing.T) {
		g, err := Plan(MinRegionSize, DefaultEntryPercent)
		require.NoError(t, err)
		assert.Equal(t, 1, g.MaxEntries)
		assert.Equal(t, 1, g.TotalBlocks)
		assert.Equal(t, MinRegionSize, g.End)
	})

	t.Run("too small", func(t *testing.T) {
		_, err := Plan(MinRegionSize-1, DefaultEntryPercent)
		require.ErrorIs(t, err, ErrInsufficientSize)

		_, err = Plan(0, DefaultEntryPercent)
		require.ErrorIs(t, err, ErrInsufficientSize)
	})

	t.Run("adjacent sub-regions", func(t *testing.T) {
		for _, size := range []int{MinRegionSize, 4096, 1 << 20, 10<<20 + 123} {
			g, err := Plan(size, DefaultEntryPercent)
			require.NoError(t, err)

			assert.Equal(t, HeaderSize, g.TableOffset)
			assert.Equal(t, g.TableOffset+g.TotalBlocks*SlotSize, g.EntriesOffset)
			assert.Equal(t, g.EntriesOffset+g.MaxEntries*EntrySize, g.DataOffset)
			assert.Equal(t, g.DataOffset+g.TotalBlocks*BlockSize, g.End)
			assert.LessOrEqual(t, g.End, size)
			// No room left for another block.
			assert.Less(t, size-g.End, BlockSize+SlotSize)
		}
	})

	t.Run("entry percent", func(t *testing.T) {
		small, err := Plan(1<<20, 5)
		require.NoError(t, err)
		large, err := Plan(1<<20, 50)
		require.NoError(t, err)

		assert.Greater(t, large.MaxEntries, small.MaxEntries)
		assert.Less(t, large.TotalBlocks, small.TotalBlocks)

		def, err := Plan(1<<20, 0)
		require.NoError(t, err)
		ten, err := Plan(1<<20, DefaultEntryPercent)
		require.NoError(t, err)
		assert.Equal(t, ten, def)

		capped, err := Plan(1<<20, 100)
		require.NoError(t, err)
		ninety, err := Plan(1<<20, MaxEntryPercent)
		require.NoError(t, err)
		assert.Equal(t, ninety, capped)
	})

	t.Run("sub-region views", func(t *testing.T) {
		region := make([]byte, 8192)
		g, err := Plan(len(region), DefaultEntryPercent)
		require.NoError(t, err)

		assert.Len(t, g.Table(region), g.TotalBlocks*SlotSize)
		assert.Len(t, g.Entries(region), g.MaxEntries*EntrySize)
		assert.Len(t, g.Data(region), g.TotalBlocks*BlockSize)
		assert.Equal(t, int64(g.TotalBlocks)*BlockSize, g.Capacity())
	})
}

func TestControl(t *testing.T) {
	region := make([]byte, 64<<10)
	g, err := Plan(len(region), DefaultEntryPercent)
	require.NoError(t, err)

	ctl := NewControl(region)
	ctl.Format(g)
	ctl.SetEntryCount(3)
	ctl.SetHighWater(4)
	ctl.SetCurrentDir(2)

	got, err := ctl.Geometry(len(region))
	require.NoError(t, err)
	assert.Equal(t, g, got)
	assert.Equal(t, 3, ctl.EntryCount())
	assert.Equal(t, 4, ctl.HighWater())
	assert.Equal(t, int32(2), ctl.CurrentDir())

	t.Run("relocated copy", func(t *testing.T) {
		moved := make([]byte, len(region)+100)
		copy(moved, region)

		got, err := NewControl(moved).Geometry(len(moved))
		require.NoError(t, err)
		assert.Equal(t, g, got)
	})

	t.Run("bad magic", func(t *testing.T) {
		_, err := NewControl(make([]byte, HeaderSize)).Geometry(len(region))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("truncated region", func(t *testing.T) {
		_, err := ctl.Geometry(g.End - 1)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("bad counters", func(t *testing.T) {
		clone := append([]byte(nil), region...)
		c := NewControl(clone)
		c.SetEntryCount(5)
		_, err := c.Geometry(len(clone))
		assert.ErrorIs(t, err, ErrCorrupt)

		c.SetEntryCount(1)
		c.SetCurrentDir(9)
		_, err = c.Geometry(len(clone))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("block count overflows int32", func(t *testing.T) {
		clone := append([]byte(nil), region...)
		binary.LittleEndian.PutUint32(clone[offTotalBlocks:], 1<<31)
		_, err := NewControl(clone).Geometry(len(clone))
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, conv.ErrOverflow)
	})

	t.Run("version mismatch", func(t *testing.T) {
		clone := append([]byte(nil), region...)
		clone[offVersion] = 7
		_, err := NewControl(clone).Geometry(len(clone))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
}
