package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-order-relay/internal/action"
	"github.com/ariefcatur/go-order-relay/internal/classify"
	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

// ActionRequest is a cashier button press: the transport's id for the press
// and the encoded payload.
type ActionRequest struct {
	ID   string
	Data string
}

// reply is the one answer a button press gets.
type reply struct {
	text  string
	alert bool
}

// HandleAction applies a cashier choice. It returns the outcome for the
// caller's logs; the cashier has already been answered.
func (r *Relay) HandleAction(ctx context.Context, req ActionRequest) (err error) {
	defer r.recoverHandler(ctx, "cashier_action", true)

	var rep reply
	defer func() {
		if aerr := r.sender.AnswerAction(ctx, req.ID, rep.text, rep.alert); aerr != nil {
			r.log.Warn("could not answer action", "action", "answer_failed", "error", aerr)
		}
	}()

	a, err := action.Decode(req.Data)
	if err != nil {
		rep = reply{textUnknownAction, true}
		r.log.Warn("malformed action", "action", "malformed_action", "data", req.Data, "error", err)
		return err
	}

	err = r.withOrder(ctx, a.OrderID, func(o orders.Order) error {
		return r.apply(ctx, a, o, &rep)
	})
	log := r.log.With("order_id", a.OrderID, "kind", string(a.Kind))
	switch {
	case err == nil:
		log.Info("cashier action applied", "action", "cashier_action")
	case errors.Is(err, orders.ErrOrderNotFound):
		rep = reply{textOrderGone, true}
		log.Warn("action on unknown order", "action", "order_not_found")
	case errors.Is(err, orders.ErrInvalidTransition):
		rep = reply{textNotAllowed, true}
		log.Warn("action not allowed", "action", "invalid_transition", "error", err)
	default:
		if rep.text == "" {
			rep = reply{textUnexpected, true}
		}
		log.Error("cashier action failed", "action", "cashier_action_failed", "error", err)
	}
	return err
}

func (r *Relay) apply(ctx context.Context, a action.Action, o orders.Order, rep *reply) error {
	switch a.Kind {
	case action.KindAccept:
		if !orders.CanTransition(o.Status, orders.StatusAccepted) {
			return fmt.Errorf("%w: accept from %s", orders.ErrInvalidTransition, o.Status)
		}
		r.setControls(ctx, o, r.timeControls(o.ID, o.SelectedTime))
	case action.KindReject:
		r.setControls(ctx, o, confirmRejectControls(o.ID))
	case action.KindComplain:
		r.setControls(ctx, o, reasonControls(o.ID))
	case action.KindBack:
		r.setControls(ctx, o, backControls(o))
	case action.KindConfirmReject:
		return r.reject(ctx, o)
	case action.KindReport:
		return r.report(ctx, o, a.Reason)
	case action.KindSelectTime:
		return r.selectTime(ctx, o, a.Time)
	case action.KindReady:
		return r.ready(ctx, o, rep)
	case action.KindSelectDelivery:
		return r.selectDelivery(ctx, o, a.Index, rep)
	}
	return nil
}

// reject tells the channel first; if that fails the order and its keyboard
// stay live so the cashier can try again.
func (r *Relay) reject(ctx context.Context, o orders.Order) error {
	if !orders.CanTransition(o.Status, orders.StatusRejected) {
		return fmt.Errorf("%w: reject from %s", orders.ErrInvalidTransition, o.Status)
	}
	if _, err := r.send(ctx, notify.Message{
		Destination: notify.DestChannel, OrderID: o.ID, Text: channelRejected(o), Markdown: true,
	}); err != nil {
		return err
	}
	r.clearControls(ctx, o)
	_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: cashierRejected(o), Markdown: true})
	r.finalize(ctx, o, orders.StatusRejected, "")
	return nil
}

func (r *Relay) report(ctx context.Context, o orders.Order, reason action.Reason) error {
	if !orders.CanTransition(o.Status, orders.StatusComplained) {
		return fmt.Errorf("%w: complaint from %s", orders.ErrInvalidTransition, o.Status)
	}
	if _, err := r.send(ctx, notify.Message{
		Destination: notify.DestComplaints, OrderID: o.ID, Text: complaintReport(o, reason), Markdown: true,
	}); err != nil {
		return err
	}
	if _, err := r.send(ctx, notify.Message{
		Destination: notify.DestChannel, OrderID: o.ID, Text: channelComplaint(o, reason), Markdown: true,
	}); err != nil {
		return err
	}
	r.clearControls(ctx, o)
	_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: cashierComplained(o, reason), Markdown: true})
	r.finalize(ctx, o, orders.StatusComplained, string(reason))
	return nil
}

// selectTime is idempotent: picking the time already set changes nothing and
// sends nothing.
func (r *Relay) selectTime(ctx context.Context, o orders.Order, t string) error {
	if o.SelectedTime == t && o.Status != orders.StatusPending {
		return nil
	}
	if err := o.Transition(orders.StatusAccepted, r.now()); err != nil {
		return err
	}
	o.SelectedTime = t
	// The channel notice is the commitment; without it nothing changes.
	if _, err := r.send(ctx, notify.Message{
		Destination: notify.DestChannel, OrderID: o.ID, Text: channelAccepted(o), Markdown: true,
	}); err != nil {
		return err
	}
	r.save(ctx, o)
	r.setControls(ctx, o, r.timeControls(o.ID, t))
	_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: cashierTimeSet(o), Markdown: true})

	if r.store != nil {
		total, _ := classify.Total(o.Details)
		if err := r.store.SaveAccepted(ctx, o, total); err != nil {
			r.persistFailed("save_accepted", o.ID, err)
		}
	}
	r.publish(ctx, orders.EventOrderAccepted, o, "")
	return nil
}

func (r *Relay) ready(ctx context.Context, o orders.Order, rep *reply) error {
	if err := o.Transition(orders.StatusReady, r.now()); err != nil {
		return err
	}
	var people []orders.DeliveryPerson
	if r.delivery != nil {
		var err error
		if people, err = r.delivery.List(ctx, r.cfg.RestaurantID); err != nil {
			r.persistFailed("list_delivery_persons", o.ID, err)
			*rep = reply{textDeliveryFailed, true}
			return err
		}
	}
	if len(people) == 0 {
		_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: textNoDelivery})
		return nil
	}
	o.Candidates = people
	r.save(ctx, o)
	r.setControls(ctx, o, deliveryControls(o.ID, people))
	_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: cashierReady(o), Markdown: true})
	return nil
}

func (r *Relay) selectDelivery(ctx context.Context, o orders.Order, i int, rep *reply) error {
	if o.Status != orders.StatusReady {
		return fmt.Errorf("%w: dispatch from %s", orders.ErrInvalidTransition, o.Status)
	}
	if i >= len(o.Candidates) {
		*rep = reply{textBadCandidate, true}
		return nil
	}
	p := o.Candidates[i]
	if _, err := r.send(ctx, notify.Message{
		Destination: notify.DestChannel, OrderID: o.ID, Text: channelDispatched(o, p), Markdown: true,
	}); err != nil {
		return err
	}
	_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, OrderID: o.ID, Text: cashierDispatched(o, p), Markdown: true})

	if err := o.Transition(orders.StatusDispatched, r.now()); err != nil {
		return err
	}
	o.DeliveryPerson = &p
	r.save(ctx, o)
	r.setControls(ctx, o, dispatchedControls(o.ID))
	if r.store != nil {
		if err := r.store.UpdateStatus(ctx, o.ID, o.Status); err != nil {
			r.persistFailed("update_status", o.ID, err)
		}
	}
	r.publish(ctx, orders.EventOrderDispatched, o, "")
	return nil
}
