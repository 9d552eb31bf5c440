package orders

import (
	"context"
	"sync"
)

// Locks hands out one mutual-exclusion lock per order id. An entry lives only
// while a caller holds or waits for it, so ids of finished orders do not
// accumulate.
type Locks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocks() *Locks {
	return &Locks{m: make(map[string]*keyLock)}
}

// Acquire blocks until the lock for id is held or ctx is done. The returned
// release func must be called exactly once; extra calls are no-ops.
func (l *Locks) Acquire(ctx context.Context, id string) (release func(), err error) {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &keyLock{ch: make(chan struct{}, 1)}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(id, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.drop(id, e)
		})
	}, nil
}

func (l *Locks) drop(id string, e *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, id)
	}
}

// Len reports how many ids currently have a live lock entry.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
