package notify

import (
	"context"
	"time"

	"github.com/ariefcatur/go-order-relay/internal/action"
)

// Destination is a logical outbound surface; the transport maps it to a chat.
type Destination int

const (
	DestCashier Destination = iota + 1
	DestChannel
	DestComplaints
)

func (d Destination) String() string {
	switch d {
	case DestCashier:
		return "cashier"
	case DestChannel:
		return "channel"
	case DestComplaints:
		return "complaints"
	}
	return "unknown"
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Button struct {
	Label  string
	Action action.Action
}

// Controls is a keyboard, one slice per row. A nil Controls clears the
// keyboard when used in an edit.
type Controls [][]Button

func (c Controls) Len() int {
	n := 0
	for _, row := range c {
		n += len(row)
	}
	return n
}

// Message is one outbound notice. A Message with a Location and no Text is
// delivered as a location card.
type Message struct {
	Destination Destination
	OrderID     string
	Text        string
	Markdown    bool
	Location    *Location
	Controls    Controls
}

// MessageRef points at a delivered message so its controls can be edited.
type MessageRef struct {
	Destination Destination `json:"destination"`
	MessageID   int         `json:"message_id"`
}

func (r MessageRef) IsZero() bool { return r.MessageID == 0 }

// Transport is the raw messaging API.
type Transport interface {
	Send(ctx context.Context, msg Message) (MessageRef, error)
	EditControls(ctx context.Context, ref MessageRef, controls Controls) error
	AnswerAction(ctx context.Context, actionID, text string, alert bool) error
}

// Record is one row of the outbound audit trail.
type Record struct {
	MessageID   string
	OrderID     string
	Source      string
	Destination string
	Content     string
	SentTime    time.Time
}

type Tracker interface {
	Track(ctx context.Context, rec Record) error
}
