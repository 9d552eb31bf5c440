package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup inbound channel events: dedup:{service}:{source}:{event_id}
	KeyDedup = "dedup:%s:%s:%s"
)

var (
	TTLStatusCache = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
