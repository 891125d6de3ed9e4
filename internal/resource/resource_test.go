package resource

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	b := NewBudget(100)
	assert.Equal(t, int64(100), b.Limit())

	require.NoError(t, b.Reserve(50))
	require.NoError(t, b.Reserve(40))
	assert.Equal(t, int64(90), b.Used())

	err := b.Reserve(20)
	require.ErrorIs(t, err, ErrOverBudget)
	assert.Contains(t, err.Error(), "20 bytes requested, 90 of 100 in use")
	assert.Equal(t, int64(90), b.Used())

	b.Release(50)
	require.NoError(t, b.Reserve(20))
	assert.Equal(t, int64(60), b.Used())
	assert.Equal(t, int64(90), b.Peak())
}

func TestBudget_Unlimited(t *testing.T) {
	b := NewBudget(0)
	require.NoError(t, b.Reserve(1<<40))
	assert.Equal(t, int64(1<<40), b.Used())
	b.Release(1 << 40)
	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, int64(0), b.Limit())
}

func TestBudget_Concurrent(t *testing.T) {
	b := NewBudget(1000)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if b.Reserve(10) == nil {
					b.Release(10)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(0), b.Used())
	assert.LessOrEqual(t, b.Peak(), int64(1000))
}

func TestNilLimits(t *testing.T) {
	var b *Budget
	assert.NoError(t, b.Reserve(10))
	b.Release(10)
	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, int64(0), b.Peak())
	assert.Equal(t, int64(0), b.Limit())

	assert.Nil(t, NewThrottle(0))
	var th *Throttle
	assert.NoError(t, th.Wait(context.Background(), 1<<30))

	src := bytes.NewReader([]byte("abc"))
	assert.Same(t, io.Reader(src), th.Reader(context.Background(), src))
}

func TestThrottle_Wait(t *testing.T) {
	th := NewThrottle(1000)

	// The bucket starts full.
	require.NoError(t, th.Wait(context.Background(), 1000))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, th.Wait(ctx, 5000))
}

func TestThrottle_Reader(t *testing.T) {
	th := NewThrottle(1 << 20)
	payload := bytes.Repeat([]byte("x"), 4096)

	got, err := io.ReadAll(th.Reader(context.Background(), bytes.NewReader(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
