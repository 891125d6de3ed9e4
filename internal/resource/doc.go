// Package resource holds the two limits a process running file stores can
// set: a Budget for the bytes handed out as regions and a Throttle for
// snapshot transfer throughput.
//
//	b := resource.NewBudget(64 << 20)
//	if err := b.Reserve(size); err != nil {
//	    // ErrOverBudget
//	}
//	defer b.Release(size)
//
//	t := resource.NewThrottle(8 << 20)
//	body := t.Reader(ctx, frame)
//
// Both types treat a nil receiver as "no limit".
package resource
