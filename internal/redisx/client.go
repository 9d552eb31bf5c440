package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-order-relay/internal/orders"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Deduper remembers inbound event ids. Redis trouble fails open: a duplicate
// order is caught by the live registry, a dropped one is lost for good.
type Deduper struct {
	RDB     *redis.Client
	Service string
	Log     *slog.Logger
}

func (d *Deduper) FirstSeen(ctx context.Context, source, id string) bool {
	key := fmt.Sprintf(KeyDedup, d.Service, source, id)
	ok, err := d.RDB.SetNX(ctx, key, 1, TTLDedup).Result()
	if err != nil {
		d.Log.Warn("dedup unavailable, processing anyway", "key", key, "error", err)
		return true
	}
	return ok
}

type statusEntry struct {
	Status    orders.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// StatusCache mirrors each order's latest status for cheap lookups by other
// services.
type StatusCache struct {
	RDB *redis.Client
	Log *slog.Logger
}

func (c *StatusCache) SetStatus(ctx context.Context, orderID string, s orders.Status) {
	b, _ := json.Marshal(statusEntry{Status: s, UpdatedAt: time.Now().UTC()})
	if err := c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err(); err != nil {
		c.Log.Warn("status cache write failed", "order_id", orderID, "error", err)
	}
}

// Status reads the cached status. A miss is orders.ErrOrderNotFound.
func (c *StatusCache) Status(ctx context.Context, orderID string) (orders.Status, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if err == redis.Nil {
		return "", orders.ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	var e statusEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return "", fmt.Errorf("decode status entry: %w", err)
	}
	return e.Status, nil
}
