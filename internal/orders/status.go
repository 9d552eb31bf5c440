package orders

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAccepted   Status = "ACCEPTED"
	StatusReady      Status = "READY"
	StatusDispatched Status = "DISPATCHED"
	StatusRejected   Status = "REJECTED"
	StatusComplained Status = "COMPLAINED"
	StatusCancelled  Status = "CANCELLED"
	StatusRated      Status = "RATED"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusAccepted: true, StatusRejected: true, StatusComplained: true,
		StatusCancelled: true, StatusRated: true,
	},
	StatusAccepted: {
		StatusAccepted: true, StatusReady: true, StatusRejected: true,
		StatusComplained: true, StatusCancelled: true, StatusRated: true,
	},
	StatusReady: {
		StatusAccepted: true, StatusReady: true, StatusDispatched: true, StatusRejected: true,
		StatusComplained: true, StatusCancelled: true, StatusRated: true,
	},
	StatusDispatched: {StatusComplained: true, StatusCancelled: true, StatusRated: true},
	StatusRejected:   {},
	StatusComplained: {},
	StatusCancelled:  {},
	StatusRated:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal statuses remove the order from the live registry.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusComplained, StatusCancelled, StatusRated:
		return true
	}
	return false
}

func (o *Order) Transition(to Status, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrInvalidTransition, o.Status, to, o.ID)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}
