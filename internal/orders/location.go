package orders

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-order-relay/internal/notify"
)

type parkedLocation struct {
	loc notify.Location
	at  time.Time
}

// LocationSlot holds locations that arrived before their order. A location
// that names its order waits under that id and only that order may claim it.
// An anonymous location waits in a single shared slot where a newer one
// overwrites an unclaimed older one.
type LocationSlot struct {
	mu      sync.Mutex
	anon    *parkedLocation
	byOrder map[string]parkedLocation
	// expected counts new orders between Expect and Done.
	expected int
	ttl      time.Duration
	now      func() time.Time
}

func NewLocationSlot(ttl time.Duration) *LocationSlot {
	return &LocationSlot{ttl: ttl, byOrder: make(map[string]parkedLocation), now: time.Now}
}

// Put parks an anonymous location.
func (s *LocationSlot) Put(loc notify.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anon = &parkedLocation{loc: loc, at: s.now()}
}

// PutFor parks a location for one order id.
func (s *LocationSlot) PutFor(orderID string, loc notify.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.byOrder[orderID] = parkedLocation{loc: loc, at: s.now()}
}

// ParkIfExpected parks an anonymous location when a new order is on its way
// and reports whether it did. That order is newer than anything live.
func (s *LocationSlot) ParkIfExpected(loc notify.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expected == 0 {
		return false
	}
	s.anon = &parkedLocation{loc: loc, at: s.now()}
	return true
}

// Expect marks a new order as on its way. Every Expect must be paired with
// Done.
func (s *LocationSlot) Expect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expected++
}

// Expecting reports whether some new order is between Expect and Done.
func (s *LocationSlot) Expecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expected > 0
}

// Done ends an Expect. With claim set it also hands over whatever location
// was parked for orderID while it was expected.
func (s *LocationSlot) Done(orderID string, claim bool) (notify.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expected > 0 {
		s.expected--
	}
	if !claim {
		return notify.Location{}, false
	}
	return s.claimLocked(orderID)
}

// Take claims the anonymous location if it is younger than the ttl.
func (s *LocationSlot) Take() (notify.Location, bool) {
	return s.TakeFor("")
}

// TakeFor claims the location parked for orderID, falling back to the
// anonymous one.
func (s *LocationSlot) TakeFor(orderID string) (notify.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(orderID)
}

func (s *LocationSlot) claimLocked(orderID string) (notify.Location, bool) {
	if orderID != "" {
		if p, ok := s.byOrder[orderID]; ok {
			delete(s.byOrder, orderID)
			if s.fresh(p.at) {
				return p.loc, true
			}
		}
	}
	if s.anon == nil {
		return notify.Location{}, false
	}
	p := *s.anon
	s.anon = nil
	if !s.fresh(p.at) {
		return notify.Location{}, false
	}
	return p.loc, true
}

func (s *LocationSlot) fresh(at time.Time) bool {
	return s.ttl <= 0 || s.now().Sub(at) <= s.ttl
}

func (s *LocationSlot) evictLocked() {
	for id, p := range s.byOrder {
		if !s.fresh(p.at) {
			delete(s.byOrder, id)
		}
	}
}

// Await polls for a location for orderID every poll interval for up to wait.
// A timeout is not an error: the caller proceeds without a location.
func (s *LocationSlot) Await(ctx context.Context, orderID string, wait, poll time.Duration) (notify.Location, bool) {
	if loc, ok := s.TakeFor(orderID); ok || wait <= 0 {
		return loc, ok
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(poll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return notify.Location{}, false
		case <-deadline.C:
			return s.TakeFor(orderID)
		case <-tick.C:
			if loc, ok := s.TakeFor(orderID); ok {
				return loc, true
			}
		}
	}
}
