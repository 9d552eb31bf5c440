package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrLastDeliveryPerson     = errors.New("restaurant must keep at least one delivery person")
	ErrDeliveryPersonNotFound = errors.New("delivery person not found")
	ErrUnknownRestaurant      = errors.New("restaurant not registered")
)

// foreignKeyViolation is the postgres SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

type DeliveryRepo struct{ DB *pgxpool.Pool }

func (r *DeliveryRepo) List(ctx context.Context, restaurantID string) ([]DeliveryPerson, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, restaurant_id, name, phone, created_at
		FROM delivery_persons WHERE restaurant_id=$1 ORDER BY created_at, id`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeliveryPerson
	for rows.Next() {
		var p DeliveryPerson
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.Phone, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *DeliveryRepo) Add(ctx context.Context, p DeliveryPerson) (DeliveryPerson, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO delivery_persons(id, restaurant_id, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, p.ID, p.RestaurantID, p.Name, p.Phone).Scan(&p.CreatedAt)
	return p, addError(err)
}

func addError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrUnknownRestaurant
	}
	return err
}

// Delete locks the restaurant's delivery rows (FOR UPDATE) so two concurrent
// deletes cannot both pass the floor check.
func (r *DeliveryRepo) Delete(ctx context.Context, restaurantID, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id FROM delivery_persons WHERE restaurant_id=$1 FOR UPDATE`, restaurantID)
	if err != nil {
		return err
	}
	var (
		n     int
		found bool
	)
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return err
		}
		n++
		found = found || pid == id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if !found {
		return ErrDeliveryPersonNotFound
	}
	if n <= 1 {
		return ErrLastDeliveryPerson
	}
	if _, err := tx.Exec(ctx, `DELETE FROM delivery_persons WHERE id=$1 AND restaurant_id=$2`, id, restaurantID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
