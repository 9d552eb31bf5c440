package notify

import (
	"context"
	"sync"
	"time"
)

// Spacer enforces a minimum gap between consecutive callers sharing it. It
// keeps rapid-fire posts rendering downstream in arrival order.
type Spacer struct {
	mu   sync.Mutex
	gap  time.Duration
	next time.Time
	now  func() time.Time
}

func NewSpacer(gap time.Duration) *Spacer {
	return &Spacer{gap: gap, now: time.Now}
}

func (s *Spacer) Wait(ctx context.Context) error {
	if s == nil || s.gap <= 0 {
		return nil
	}
	s.mu.Lock()
	now := s.now()
	at := now
	if s.next.After(at) {
		at = s.next
	}
	s.next = at.Add(s.gap)
	s.mu.Unlock()

	return sleep(ctx, at.Sub(now))
}
