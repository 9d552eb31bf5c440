package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-relay/internal/classify"
	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
	"github.com/ariefcatur/go-order-relay/internal/relay"
)

const Source = "kafka"

type channelSink interface {
	HandleEvent(ctx context.Context, in relay.Inbound, ev classify.Event, loc *notify.Location)
	HandleLocation(ctx context.Context, in relay.Inbound, loc notify.Location, orderID string)
}

// ChannelEvents consumes the structured channel contract. Every field is
// explicit, so nothing here goes through text classification.
type ChannelEvents struct {
	Sink channelSink
	Log  *slog.Logger
}

// Handle never fails: an undecodable message would block the partition
// forever, so it is logged and committed.
func (c *ChannelEvents) Handle(ctx context.Context, m kafka.Message) error {
	env, err := UnmarshalEnvelope(m.Value)
	if err != nil {
		c.Log.Error("bad channel envelope", "action", "poison_message", "offset", m.Offset, "error", err)
		return nil
	}
	p, err := UnwrapPayload[orders.ChannelEventPayload](env.Payload)
	if err != nil {
		c.Log.Error("bad channel payload", "action", "poison_message", "event_type", env.EventType, "error", err)
		return nil
	}
	in := relay.Inbound{Source: Source, EventID: env.EventID}

	ev := classify.Event{OrderID: p.OrderID, OrderNumber: p.OrderNumber, Text: p.Text}
	switch env.EventType {
	case orders.EventOrderPlaced:
		ev.Kind = classify.KindNewOrder
		if p.Details != "" {
			ev.Text = p.Details
		}
		c.Sink.HandleEvent(ctx, in, ev, location(p))
		return nil
	case orders.EventLocationShared:
		loc := location(p)
		if loc == nil {
			c.Log.Warn("location event without coordinates", "event_id", env.EventID)
			return nil
		}
		c.Sink.HandleLocation(ctx, in, *loc, p.OrderID)
		return nil
	case orders.EventOrderCancelled:
		ev.Kind = classify.KindCancellation
		if p.Reason == orders.CancelReasonDelay {
			ev.Cancel = classify.CancelReport
		}
	case orders.EventOrderRated:
		ev.Kind = classify.KindRating
		ev.Rating = p.Rating
		ev.Comment = p.Comment
	case orders.EventCustomerReminder:
		ev.Kind = classify.KindReminder
	case orders.EventTimeLeftQuestion:
		ev.Kind = classify.KindTimeLeft
	default:
		c.Log.Warn("unknown channel event type", "event_type", env.EventType)
		return nil
	}
	c.Sink.HandleEvent(ctx, in, ev, nil)
	return nil
}

func location(p orders.ChannelEventPayload) *notify.Location {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &notify.Location{Latitude: *p.Latitude, Longitude: *p.Longitude}
}
