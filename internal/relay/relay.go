// Package relay coordinates the order lifecycle between the broadcast channel
// and the cashier. Every handler is its own recovery boundary: failures are
// logged and never propagate to the caller's dispatch loop.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

type Sender interface {
	Send(ctx context.Context, msg notify.Message) (notify.MessageRef, error)
	EditControls(ctx context.Context, ref notify.MessageRef, controls notify.Controls) error
	AnswerAction(ctx context.Context, actionID, text string, alert bool) error
}

type OrderStore interface {
	SaveAccepted(ctx context.Context, o orders.Order, total int) error
	UpdateStatus(ctx context.Context, orderID string, s orders.Status) error
	Stats(ctx context.Context, restaurantID string, from, to time.Time) (orders.Stats, error)
}

type SnapshotStore interface {
	SavePending(ctx context.Context, o orders.Order) error
	DeletePending(ctx context.Context, orderID string) error
	LoadPending(ctx context.Context, restaurantID string) ([]orders.Order, error)
}

type DeliveryLister interface {
	List(ctx context.Context, restaurantID string) ([]orders.DeliveryPerson, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, p orders.OrderEventPayload)
}

// Deduper reports whether an inbound event id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, source, id string) bool
}

type StatusCache interface {
	SetStatus(ctx context.Context, orderID string, s orders.Status)
}

type Config struct {
	RestaurantID string
	// LocationWait bounds how long a new order waits for a trailing
	// location; LocationPoll is the polling step.
	LocationWait time.Duration
	LocationPoll time.Duration
	// PairWindow is how old a pending order may be and still claim a
	// location that arrives after it.
	PairWindow  time.Duration
	PostSpacing time.Duration
	TimeOptions []string
}

var DefaultTimeOptions = []string{"5", "10", "15", "20", "25", "30", "35", "40", "45", "50", "60", "75", "90"}

// OpenEndedTime is the "more than 90 minutes" choice.
const OpenEndedTime = "90+"

type Deps struct {
	Sender    Sender
	Orders    OrderStore
	Snapshots SnapshotStore
	Delivery  DeliveryLister
	Events    EventPublisher
	Dedup     Deduper
	Status    StatusCache
	Log       *slog.Logger
}

type Relay struct {
	cfg       Config
	sender    Sender
	store     OrderStore
	snapshots SnapshotStore
	delivery  DeliveryLister
	events    EventPublisher
	dedup     Deduper
	status    StatusCache
	log       *slog.Logger

	registry *orders.Registry
	locks    *orders.Locks
	slot     *orders.LocationSlot
	spacer   *notify.Spacer
	now      func() time.Time
}

func New(cfg Config, deps Deps) *Relay {
	if len(cfg.TimeOptions) == 0 {
		cfg.TimeOptions = DefaultTimeOptions
	}
	if cfg.PairWindow <= 0 {
		cfg.PairWindow = 30 * time.Second
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		cfg:       cfg,
		sender:    deps.Sender,
		store:     deps.Orders,
		snapshots: deps.Snapshots,
		delivery:  deps.Delivery,
		events:    deps.Events,
		dedup:     deps.Dedup,
		status:    deps.Status,
		log:       log.With("restaurant_id", cfg.RestaurantID),
		registry:  orders.NewRegistry(),
		locks:     orders.NewLocks(),
		slot:      orders.NewLocationSlot(cfg.PairWindow),
		spacer:    notify.NewSpacer(cfg.PostSpacing),
		now:       time.Now,
	}
}

// Registry exposes the live orders for read-only callers (admin API).
func (r *Relay) Registry() *orders.Registry { return r.registry }

// Restore loads the pending snapshots left by a previous process.
func (r *Relay) Restore(ctx context.Context) (int, error) {
	if r.snapshots == nil {
		return 0, nil
	}
	list, err := r.snapshots.LoadPending(ctx, r.cfg.RestaurantID)
	if err != nil {
		return 0, fmt.Errorf("load pending orders: %w", err)
	}
	for _, o := range list {
		r.registry.Put(o)
	}
	return len(list), nil
}

// withOrder runs fn holding id's lock with a fresh copy of the live order.
func (r *Relay) withOrder(ctx context.Context, id string, fn func(o orders.Order) error) error {
	release, err := r.locks.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	o, err := r.registry.Get(id)
	if err != nil {
		return err
	}
	return fn(o)
}

// save stores o in the live registry and mirrors it durably.
func (r *Relay) save(ctx context.Context, o orders.Order) {
	o.UpdatedAt = r.now()
	r.registry.Put(o)
	if r.snapshots != nil {
		if err := r.snapshots.SavePending(ctx, o); err != nil {
			r.persistFailed("save_snapshot", o.ID, err)
		}
	}
	if r.status != nil {
		r.status.SetStatus(ctx, o.ID, o.Status)
	}
}

// finalize applies a terminal status and drops the order from every live
// structure.
func (r *Relay) finalize(ctx context.Context, o orders.Order, to orders.Status, reason string) {
	if err := o.Transition(to, r.now()); err != nil {
		r.log.Warn("forcing terminal status", "order_id", o.ID, "error", err)
		o.Status = to
	}
	r.registry.Remove(o.ID)
	if r.snapshots != nil {
		if err := r.snapshots.DeletePending(ctx, o.ID); err != nil {
			r.persistFailed("delete_snapshot", o.ID, err)
		}
	}
	if r.store != nil {
		if err := r.store.UpdateStatus(ctx, o.ID, to); err != nil {
			r.persistFailed("update_status", o.ID, err)
		}
	}
	if r.status != nil {
		r.status.SetStatus(ctx, o.ID, to)
	}

	eventType := orders.EventOrderClosed
	switch to {
	case orders.StatusRejected:
		eventType = orders.EventOrderRejected
	case orders.StatusComplained:
		eventType = orders.EventOrderComplained
	}
	r.publish(ctx, eventType, o, reason)
	r.log.Info("order closed", "action", "order_closed", "order_id", o.ID, "status", to)
}

func (r *Relay) publish(ctx context.Context, eventType string, o orders.Order, reason string) {
	if r.events == nil {
		return
	}
	p := orders.OrderEventPayload{
		OrderID:      o.ID,
		OrderNumber:  o.Number,
		RestaurantID: r.cfg.RestaurantID,
		Status:       o.Status,
		SelectedTime: o.SelectedTime,
		Reason:       reason,
	}
	if o.DeliveryPerson != nil {
		p.DeliveryPerson = o.DeliveryPerson.Name
	}
	r.events.Publish(ctx, eventType, p)
}

// clearControls removes the keyboard from the cashier's copy of the order. A
// cashier message that no longer exists is expected and only logged.
func (r *Relay) clearControls(ctx context.Context, o orders.Order) {
	if o.CashierRef.IsZero() {
		return
	}
	if err := r.sender.EditControls(ctx, o.CashierRef, nil); err != nil {
		if errors.Is(err, notify.ErrMessageGone) {
			r.log.Info("cashier message already gone", "order_id", o.ID)
			return
		}
		r.log.Warn("could not clear controls", "action", "edit_failed", "order_id", o.ID, "error", err)
	}
}

func (r *Relay) setControls(ctx context.Context, o orders.Order, c notify.Controls) {
	if o.CashierRef.IsZero() {
		return
	}
	if err := r.sender.EditControls(ctx, o.CashierRef, c); err != nil {
		r.log.Warn("could not update controls", "action", "edit_failed", "order_id", o.ID, "error", err)
	}
}

func (r *Relay) send(ctx context.Context, msg notify.Message) (notify.MessageRef, error) {
	ref, err := r.sender.Send(ctx, msg)
	if err != nil {
		r.log.Error("outbound send failed", "action", "delivery_failed",
			"order_id", msg.OrderID, "destination", msg.Destination.String(), "error", err)
	}
	return ref, err
}

func (r *Relay) persistFailed(op, orderID string, err error) {
	r.log.Error("persistence failed", "action", "persistence_failed", "op", op, "order_id", orderID, "error", err)
}

func (r *Relay) seen(ctx context.Context, in Inbound) bool {
	if r.dedup == nil || in.EventID == "" {
		return false
	}
	return !r.dedup.FirstSeen(ctx, in.Source, in.EventID)
}

// recoverHandler is deferred by every exported handler.
func (r *Relay) recoverHandler(ctx context.Context, handler string, fromCashier bool) {
	p := recover()
	if p == nil {
		return
	}
	r.log.Error("unexpected error in handler", "action", "handler_panic",
		"handler", handler, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
	if fromCashier && r.sender != nil {
		_, _ = r.sender.Send(ctx, notify.Message{Destination: notify.DestCashier, Text: textUnexpected})
	}
}
