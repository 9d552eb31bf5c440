package orders

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// Registry is the live, in-memory set of unresolved orders. It guards the map
// itself; read-modify-write of a single order is serialized by the caller
// holding that order's lock from Locks.
type Registry struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewRegistry() *Registry {
	return &Registry{orders: make(map[string]Order)}
}

func (r *Registry) Get(id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *Registry) Put(o Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

func (r *Registry) Remove(id string) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	delete(r.orders, id)
	return o, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// List returns a copy of every live order, oldest first.
func (r *Registry) List() []Order {
	r.mu.RLock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FindByNumber is the linear fallback for notices that carry only the
// human-facing number.
func (r *Registry) FindByNumber(n int) (Order, error) {
	if n <= 0 {
		return Order{}, ErrOrderNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  Order
		found bool
	)
	for _, o := range r.orders {
		if o.Number == n && (!found || o.CreatedAt.After(best.CreatedAt)) {
			best, found = o, true
		}
	}
	if !found {
		return Order{}, ErrOrderNotFound
	}
	return best, nil
}

// LatestUnlocated returns the newest pending order without a location that
// was created at or after since. This is the heuristic pairing for a location
// that carries no order reference; two orders arriving together can race.
func (r *Registry) LatestUnlocated(since time.Time) (Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  Order
		found bool
	)
	for _, o := range r.orders {
		if o.Location != nil || o.Status != StatusPending || o.CreatedAt.Before(since) {
			continue
		}
		if !found || o.CreatedAt.After(best.CreatedAt) {
			best, found = o, true
		}
	}
	return best, found
}
