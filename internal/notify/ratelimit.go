package notify

import (
	"context"
	"sync"
	"time"
)

// Limiter allows at most max calls to complete in any sliding window of
// length period.
type Limiter struct {
	mu     sync.Mutex
	max    int
	period time.Duration
	calls  []time.Time
	now    func() time.Time
}

func NewLimiter(maxCalls int, period time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	return &Limiter{max: maxCalls, period: period, now: time.Now}
}

// Acquire blocks until a slot in the window is free, then records the call.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		cutoff := now.Add(-l.period)
		i := 0
		for i < len(l.calls) && !l.calls[i].After(cutoff) {
			i++
		}
		l.calls = l.calls[i:]

		if len(l.calls) < l.max {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.calls[0].Add(l.period).Sub(now)
		l.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
