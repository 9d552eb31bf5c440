package orders

import (
	"encoding/json"
	"time"
)

// Inbound: structured channel events from the customer-facing bot.
const (
	EventOrderPlaced      = "OrderPlaced"
	EventLocationShared   = "LocationShared"
	EventOrderCancelled   = "OrderCancelled"
	EventOrderRated       = "OrderRated"
	EventCustomerReminder = "CustomerReminder"
	EventTimeLeftQuestion = "TimeLeftQuestion"
)

// Outbound: lifecycle changes decided by the cashier.
const (
	EventOrderAccepted   = "OrderAccepted"
	EventOrderRejected   = "OrderRejected"
	EventOrderComplained = "OrderComplained"
	EventOrderDispatched = "OrderDispatched"
	EventOrderClosed     = "OrderClosed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "order-relay"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

// Cancellation reasons carried by OrderCancelled.
const (
	CancelReasonHesitated = "customer_hesitated"
	CancelReasonDelay     = "restaurant_delay_report"
)

// ChannelEventPayload is the explicit-field replacement for the free-text
// channel posts. Fields not relevant to the event type are left empty.
type ChannelEventPayload struct {
	OrderID     string   `json:"order_id,omitempty"`
	OrderNumber int      `json:"order_number,omitempty"`
	Details     string   `json:"details,omitempty"`
	Rating      int      `json:"rating,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Text        string   `json:"text,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type OrderEventPayload struct {
	OrderID        string `json:"order_id"`
	OrderNumber    int    `json:"order_number,omitempty"`
	RestaurantID   string `json:"restaurant_id"`
	Status         Status `json:"status"`
	SelectedTime   string `json:"selected_time,omitempty"`
	Reason         string `json:"reason,omitempty"`
	DeliveryPerson string `json:"delivery_person,omitempty"`
}
