package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-relay/internal/orders"
)

type publisher interface {
	Publish(key, value []byte, headers ...kafka.Header)
}

// LifecycleEvents publishes cashier decisions on the order events topic,
// keyed by order id.
type LifecycleEvents struct {
	P        publisher
	Producer string
	Log      *slog.Logger
}

func (e *LifecycleEvents) Publish(ctx context.Context, eventType string, p orders.OrderEventPayload) {
	env, err := NewEnvelope(eventType, e.Producer, p.OrderID, p)
	if err == nil {
		var b []byte
		if b, err = json.Marshal(env); err == nil {
			e.P.Publish(orders.PartitionKey(p.OrderID), b,
				kafka.Header{Key: "x-event-type", Value: []byte(eventType)},
				kafka.Header{Key: "x-event-version", Value: []byte("1")},
			)
			return
		}
	}
	e.Log.Error("could not encode lifecycle event", "event_type", eventType, "order_id", p.OrderID, "error", err)
}
