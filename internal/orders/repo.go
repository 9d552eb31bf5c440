package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-relay/internal/notify"
)

// Repo persists accepted orders and answers the reporting queries.
type Repo struct{ DB *pgxpool.Pool }

// SaveAccepted records the order the first time a preparation time is picked
// and keeps selected_time current on later changes.
func (r *Repo) SaveAccepted(ctx context.Context, o Order, total int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(order_id, order_number, restaurant_id, total_price, selected_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (order_id) DO UPDATE
		SET selected_time = EXCLUDED.selected_time,
		    status        = EXCLUDED.status,
		    updated_at    = now()
	`, o.ID, o.Number, o.RestaurantID, total, o.SelectedTime, string(o.Status))
	if err != nil {
		return fmt.Errorf("save accepted order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateStatus is a no-op for orders that were never accepted.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, s Status) error {
	_, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE order_id=$1`, orderID, string(s))
	if err != nil {
		return fmt.Errorf("update status of %s: %w", orderID, err)
	}
	return nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE order_id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// Stats counts accepted orders of a restaurant created in [from, to). A zero
// bound is open.
func (r *Repo) Stats(ctx context.Context, restaurantID string, from, to time.Time) (Stats, error) {
	var (
		st       Stats
		fromArg  any
		untilArg any
	)
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		untilArg = to
	}
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)::bigint
		FROM orders
		WHERE restaurant_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <  $3)
		  AND status NOT IN ('REJECTED')
	`, restaurantID, fromArg, untilArg).Scan(&st.Count, &st.Total)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// SnapshotRepo mirrors live orders so a restart can restore them.
type SnapshotRepo struct{ DB *pgxpool.Pool }

func (r *SnapshotRepo) SavePending(ctx context.Context, o Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO pending_orders(order_id, restaurant_id, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (order_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, o.ID, o.RestaurantID, b)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", o.ID, err)
	}
	return nil
}

func (r *SnapshotRepo) DeletePending(ctx context.Context, orderID string) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM pending_orders WHERE order_id=$1`, orderID); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", orderID, err)
	}
	return nil
}

func (r *SnapshotRepo) LoadPending(ctx context.Context, restaurantID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT snapshot FROM pending_orders WHERE restaurant_id=$1 ORDER BY updated_at`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		var o Order
		if err := json.Unmarshal(b, &o); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// TrackingRepo is the append-only outbound message audit log.
type TrackingRepo struct{ DB *pgxpool.Pool }

func (r *TrackingRepo) Track(ctx context.Context, rec notify.Record) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO message_tracking(message_id, order_id, source, destination, content, sent_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.MessageID, rec.OrderID, rec.Source, rec.Destination, rec.Content, rec.SentTime)
	return err
}
