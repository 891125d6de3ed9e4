package resource

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Throttle paces snapshot transfers with a token bucket holding one second
// of budget. A nil *Throttle never waits.
type Throttle struct {
	lim *rate.Limiter
}

// NewThrottle returns a throttle for bytesPerSec, or nil when bytesPerSec
// is not positive.
func NewThrottle(bytesPerSec int64) *Throttle {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(min(bytesPerSec, int64(1<<30)))
	return &Throttle{lim: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}
}

// Wait blocks until n bytes may pass. Transfers larger than the bucket are
// paid for in bucket-sized installments.
func (t *Throttle) Wait(ctx context.Context, n int) error {
	if t == nil {
		return ctx.Err()
	}
	burst := t.lim.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := t.lim.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// Reader charges the bytes read from r after each read.
func (t *Throttle) Reader(ctx context.Context, r io.Reader) io.Reader {
	if t == nil {
		return r
	}
	return &throttledReader{ctx: ctx, r: r, t: t}
}

type throttledReader struct {
	ctx context.Context
	r   io.Reader
	t   *Throttle
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	if n > 0 {
		if werr := tr.t.Wait(tr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
