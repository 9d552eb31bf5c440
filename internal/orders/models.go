package orders

import (
	"time"

	"github.com/ariefcatur/go-order-relay/internal/notify"
)

// Order is one live, unresolved order as the relay tracks it.
type Order struct {
	ID           string `json:"order_id"`
	Number       int    `json:"order_number,omitempty"` // 0 = not present
	RestaurantID string `json:"restaurant_id"`
	Details      string `json:"details"`
	Status       Status `json:"status"`

	OriginMessageID int               `json:"origin_message_id,omitempty"` // traceability only
	CashierRef      notify.MessageRef `json:"cashier_ref"`

	Location     *notify.Location `json:"location,omitempty"`
	SelectedTime string           `json:"selected_time,omitempty"` // "15" or "90+"

	// Candidates is the delivery list shown to the cashier; a selection
	// indexes into it.
	Candidates     []DeliveryPerson `json:"candidates,omitempty"`
	DeliveryPerson *DeliveryPerson  `json:"delivery_person,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryPerson struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats is an aggregate over durable (accepted) orders.
type Stats struct {
	Count int   `json:"count"`
	Total int64 `json:"total"`
}
