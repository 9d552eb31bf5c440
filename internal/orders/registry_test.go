package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-relay/internal/notify"
)

func TestRegistry_Basics(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Put(Order{ID: "B", Number: 2, Status: StatusPending, CreatedAt: now})
	r.Put(Order{ID: "A", Number: 1, Status: StatusPending, CreatedAt: now.Add(-time.Minute)})

	o, err := r.Get("A")
	require.NoError(t, err)
	assert.Equal(t, 1, o.Number)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].ID)

	o, err = r.FindByNumber(2)
	require.NoError(t, err)
	assert.Equal(t, "B", o.ID)
	_, err = r.FindByNumber(0)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, ok := r.Remove("A")
	assert.True(t, ok)
	_, ok = r.Remove("A")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Put(Order{ID: "A", Details: "original"})

	o, _ := r.Get("A")
	o.Details = "changed"

	again, _ := r.Get("A")
	assert.Equal(t, "original", again.Details)
}

func TestRegistry_LatestUnlocated(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Put(Order{ID: "old", Status: StatusPending, CreatedAt: now.Add(-time.Hour)})
	r.Put(Order{ID: "located", Status: StatusPending, CreatedAt: now, Location: &notify.Location{Latitude: 1}})
	r.Put(Order{ID: "accepted", Status: StatusAccepted, CreatedAt: now})
	r.Put(Order{ID: "fresh", Status: StatusPending, CreatedAt: now.Add(-time.Second)})

	o, ok := r.LatestUnlocated(now.Add(-time.Minute))
	require.True(t, ok)
	assert.Equal(t, "fresh", o.ID)

	_, ok = r.LatestUnlocated(now.Add(time.Minute))
	assert.False(t, ok)
}

func TestStatus_Transitions(t *testing.T) {
	o := Order{ID: "X1", Status: StatusPending}
	require.NoError(t, o.Transition(StatusAccepted, time.Now()))
	require.NoError(t, o.Transition(StatusAccepted, time.Now()))
	require.NoError(t, o.Transition(StatusReady, time.Now()))
	require.NoError(t, o.Transition(StatusDispatched, time.Now()))
	assert.ErrorIs(t, o.Transition(StatusAccepted, time.Now()), ErrInvalidTransition)
	require.NoError(t, o.Transition(StatusRated, time.Now()))
	assert.True(t, o.Status.Terminal())
	assert.ErrorIs(t, o.Transition(StatusCancelled, time.Now()), ErrInvalidTransition)
}

func TestLocationSlot(t *testing.T) {
	s := NewLocationSlot(time.Minute)
	_, ok := s.Take()
	assert.False(t, ok)

	s.Put(notify.Location{Latitude: 1, Longitude: 2})
	s.Put(notify.Location{Latitude: 3, Longitude: 4})
	loc, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, 3.0, loc.Latitude, "newer location overwrites")

	_, ok = s.Take()
	assert.False(t, ok, "slot is claimed once")
}

func TestLocationSlot_Expired(t *testing.T) {
	s := NewLocationSlot(time.Second)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.Put(notify.Location{Latitude: 1})

	s.now = func() time.Time { return base.Add(2 * time.Second) }
	_, ok := s.Take()
	assert.False(t, ok)
}

func TestLocationSlot_Await(t *testing.T) {
	s := NewLocationSlot(time.Minute)
	go func() {
		time.Sleep(30 * time.Millisecond)
		s.Put(notify.Location{Latitude: 5})
	}()

	loc, ok := s.Await(context.Background(), "X1", time.Second, 5*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 5.0, loc.Latitude)

	start := time.Now()
	_, ok = s.Await(context.Background(), "X1", 40*time.Millisecond, 5*time.Millisecond)
	assert.False(t, ok, "timeout proceeds without a location")
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLocationSlot_KeyedByOrder(t *testing.T) {
	s := NewLocationSlot(time.Minute)
	s.PutFor("Z", notify.Location{Latitude: 7, Longitude: 8})

	_, ok := s.Take()
	assert.False(t, ok, "an anonymous claim never sees a keyed location")
	_, ok = s.TakeFor("X1")
	assert.False(t, ok)

	loc, ok := s.TakeFor("Z")
	require.True(t, ok)
	assert.Equal(t, 8.0, loc.Longitude)
}

func TestLocationSlot_KeyedExpires(t *testing.T) {
	s := NewLocationSlot(time.Second)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.PutFor("Z", notify.Location{Latitude: 1})

	s.now = func() time.Time { return base.Add(2 * time.Second) }
	s.PutFor("Y", notify.Location{Latitude: 2})
	assert.Len(t, s.byOrder, 1, "stale entries are evicted on put")
	_, ok := s.TakeFor("Z")
	assert.False(t, ok)
}

func TestLocationSlot_Expect(t *testing.T) {
	s := NewLocationSlot(time.Minute)
	assert.False(t, s.ParkIfExpected(notify.Location{Latitude: 1}))

	s.Expect()
	assert.True(t, s.Expecting())
	assert.True(t, s.ParkIfExpected(notify.Location{Latitude: 2}))

	loc, ok := s.Done("X1", true)
	require.True(t, ok)
	assert.Equal(t, 2.0, loc.Latitude)
	assert.False(t, s.Expecting())

	s.Expect()
	assert.True(t, s.ParkIfExpected(notify.Location{Latitude: 3}))
	_, ok = s.Done("X1", false)
	assert.False(t, ok, "done without claim leaves the location parked")
	loc, ok = s.Take()
	require.True(t, ok)
	assert.Equal(t, 3.0, loc.Latitude)
}

func TestRange(t *testing.T) {
	now := time.Date(2026, time.March, 15, 13, 30, 0, 0, time.UTC)

	from, to, err := Range(PeriodToday, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), to)

	from, to, _ = Range(PeriodLastMonth, now)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), to)

	from, to, _ = Range(PeriodLastYear, now)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)

	from, to, _ = Range(PeriodTotal, now)
	assert.True(t, from.IsZero() && to.IsZero())

	_, _, err = Range("fortnight", now)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}
