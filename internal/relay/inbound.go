package relay

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-order-relay/internal/classify"
	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

// Inbound identifies where a channel event came from. EventID feeds
// deduplication and may be empty.
type Inbound struct {
	Source    string
	EventID   string
	MessageID int
}

// HandleText classifies a free-text channel post and routes it.
func (r *Relay) HandleText(ctx context.Context, in Inbound, text string) {
	defer r.recoverHandler(ctx, "channel_text", false)

	ev, ok := classify.Classify(text)
	if !ok {
		r.log.Debug("unclassified channel post", "action", "classification_miss",
			"source", in.Source, "text", classify.Truncate(text, 80))
		return
	}
	r.dispatch(ctx, in, ev, nil)
}

// HandleEvent routes an already-typed channel event. loc is set when the
// producer attached coordinates to the order itself.
func (r *Relay) HandleEvent(ctx context.Context, in Inbound, ev classify.Event, loc *notify.Location) {
	defer r.recoverHandler(ctx, "channel_event", false)
	r.dispatch(ctx, in, ev, loc)
}

func (r *Relay) dispatch(ctx context.Context, in Inbound, ev classify.Event, loc *notify.Location) {
	if ev.Kind == classify.KindEcho {
		return
	}
	if r.seen(ctx, in) {
		r.log.Info("duplicate channel event skipped", "action", "dedup_skip", "source", in.Source, "event_id", in.EventID)
		return
	}
	log := r.log.With("kind", ev.Kind.String(), "order_id", ev.OrderID, "order_number", ev.OrderNumber)

	var err error
	switch ev.Kind {
	case classify.KindNewOrder:
		err = r.newOrder(ctx, in, ev, loc)
	case classify.KindRating:
		err = r.closeFromChannel(ctx, ev, orders.StatusRated, "")
	case classify.KindCancellation:
		reason := orders.CancelReasonHesitated
		if ev.Cancel == classify.CancelReport {
			reason = orders.CancelReasonDelay
		}
		err = r.closeFromChannel(ctx, ev, orders.StatusCancelled, reason)
	case classify.KindReminder, classify.KindTimeLeft:
		_, err = r.send(ctx, notify.Message{
			Destination: notify.DestCashier,
			OrderID:     ev.OrderID,
			Text:        cashierForward(ev.Kind, ev.Text),
		})
	default:
		log.Warn("no handler for kind")
		return
	}
	switch {
	case err == nil:
		log.Info("channel event handled", "action", "channel_event")
	case errors.Is(err, orders.ErrOrderNotFound):
		log.Warn("channel event for unknown order", "action", "order_not_found")
	default:
		log.Error("channel event failed", "action", "channel_event_failed", "error", err)
	}
}

// newOrder forwards a new channel order to the cashier. The order exists
// only once the cashier has received it.
func (r *Relay) newOrder(ctx context.Context, in Inbound, ev classify.Event, loc *notify.Location) error {
	if ev.OrderID == "" {
		return errors.New("new order without id")
	}
	release, err := r.locks.Acquire(ctx, ev.OrderID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := r.registry.Get(ev.OrderID); err == nil {
		r.log.Info("order already live", "action", "dedup_skip", "order_id", ev.OrderID)
		return nil
	}

	// From here until the order is registered, anonymous locations are
	// parked for it rather than given to an older order.
	r.slot.Expect()
	expecting := true
	defer func() {
		if expecting {
			r.slot.Done(ev.OrderID, false)
		}
	}()

	if err := r.spacer.Wait(ctx); err != nil {
		return err
	}
	if loc == nil {
		if l, ok := r.slot.Await(ctx, ev.OrderID, r.cfg.LocationWait, r.cfg.LocationPoll); ok {
			loc = &l
		}
	}

	now := r.now()
	o := orders.Order{
		ID:              ev.OrderID,
		Number:          ev.OrderNumber,
		RestaurantID:    r.cfg.RestaurantID,
		Details:         ev.Text,
		Status:          orders.StatusPending,
		OriginMessageID: in.MessageID,
		Location:        loc,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if loc != nil {
		o.Details += textLocationNote
	}

	ref, err := r.send(ctx, notify.Message{
		Destination: notify.DestCashier,
		OrderID:     o.ID,
		Text:        cashierNewOrder(o),
		Markdown:    true,
		Controls:    mainControls(o.ID),
	})
	if err != nil {
		return err
	}
	o.CashierRef = ref
	r.save(ctx, o)

	expecting = false
	if l, ok := r.slot.Done(o.ID, loc == nil); ok {
		loc = &l
		o.Location = loc
		o.Details += textLocationNote
		r.save(ctx, o)
	}
	r.log.Info("order forwarded to cashier", "action", "order_received", "order_id", o.ID, "has_location", loc != nil)

	if loc != nil {
		r.sendLocationCard(ctx, o)
	}
	return nil
}

func (r *Relay) sendLocationCard(ctx context.Context, o orders.Order) {
	loc := *o.Location
	_, _ = r.send(ctx, notify.Message{
		Destination: notify.DestCashier,
		OrderID:     o.ID,
		Location:    &loc,
	})
}

// HandleLocation pairs a shared location with an order. orderID is the
// explicit correlation when the producer supplies one, and such a location is
// only ever given to that order. Without it the location goes to a new order
// still on its way, else to the newest recent order that has none, else it
// waits in the slot for the next order.
func (r *Relay) HandleLocation(ctx context.Context, in Inbound, loc notify.Location, orderID string) {
	defer r.recoverHandler(ctx, "channel_location", false)

	if r.seen(ctx, in) {
		return
	}
	if err := r.spacer.Wait(ctx); err != nil {
		return
	}

	explicit := orderID != ""
	park := func() {
		if explicit {
			r.slot.PutFor(orderID, loc)
		} else {
			r.slot.Put(loc)
		}
		r.log.Info("location parked", "action", "location_parked", "order_id", orderID)
	}

	switch {
	case !explicit:
		if r.slot.ParkIfExpected(loc) {
			r.log.Info("location parked for incoming order", "action", "location_parked")
			return
		}
		o, ok := r.registry.LatestUnlocated(r.now().Add(-r.cfg.PairWindow))
		if !ok {
			park()
			return
		}
		orderID = o.ID
	default:
		if _, err := r.registry.Get(orderID); err != nil {
			// The order may be waiting in newOrder right now, holding its lock.
			park()
			return
		}
	}

	err := r.withOrder(ctx, orderID, func(o orders.Order) error {
		if o.Location != nil {
			return errLocated
		}
		o.Location = &loc
		o.Details += textLocationNote
		r.save(ctx, o)
		r.sendLocationCard(ctx, o)
		return nil
	})
	switch {
	case err == nil:
		r.log.Info("location attached", "action", "location_attached", "order_id", orderID)
	case errors.Is(err, orders.ErrOrderNotFound):
		// Finalized in the meantime, or an explicit order not yet registered.
		park()
	case errors.Is(err, errLocated):
		r.log.Warn("order already has a location", "order_id", orderID)
	default:
		r.log.Error("location handling failed", "order_id", orderID, "error", err)
	}
}

var errLocated = errors.New("order already located")

// closeFromChannel ends an order because the customer rated or cancelled it.
// The channel is authoritative: the order is removed even when the cashier
// cannot be told.
func (r *Relay) closeFromChannel(ctx context.Context, ev classify.Event, to orders.Status, reason string) error {
	id, err := r.resolve(ev)
	if err != nil {
		return err
	}
	return r.withOrder(ctx, id, func(o orders.Order) error {
		r.clearControls(ctx, o)

		text := cashierCancelled(o, ev.Cancel)
		if to == orders.StatusRated {
			text = cashierRated(o, ev)
		}
		if _, err := r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: text}); err != nil {
			r.log.Warn("cashier not told about closed order", "order_id", o.ID)
		}
		r.finalize(ctx, o, to, reason)
		return nil
	})
}

// resolve finds the live order an event refers to: by id first, then by the
// human-facing number.
func (r *Relay) resolve(ev classify.Event) (string, error) {
	if ev.OrderID != "" {
		if _, err := r.registry.Get(ev.OrderID); err == nil {
			return ev.OrderID, nil
		}
	}
	o, err := r.registry.FindByNumber(ev.OrderNumber)
	if err != nil {
		return "", err
	}
	return o.ID, nil
}
