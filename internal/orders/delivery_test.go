package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockDeliveryStore struct{ mock.Mock }

func (m *mockDeliveryStore) List(ctx context.Context, restaurantID string) ([]DeliveryPerson, error) {
	args := m.Called(ctx, restaurantID)
	people, _ := args.Get(0).([]DeliveryPerson)
	return people, args.Error(1)
}

func (m *mockDeliveryStore) Add(ctx context.Context, p DeliveryPerson) (DeliveryPerson, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(DeliveryPerson), args.Error(1)
}

func (m *mockDeliveryStore) Delete(ctx context.Context, restaurantID, id string) error {
	return m.Called(ctx, restaurantID, id).Error(0)
}

func TestDeliveryService_Remove(t *testing.T) {
	ctx := context.Background()
	ali := DeliveryPerson{ID: "d1", RestaurantID: "r1", Name: "Ali", Phone: "0991"}
	sara := DeliveryPerson{ID: "d2", RestaurantID: "r1", Name: "Sara", Phone: "0992"}

	tests := []struct {
		name    string
		id      string
		prepare func(*mockDeliveryStore)
		wantErr error
	}{
		{
			name: "last one is refused",
			id:   "d1",
			prepare: func(m *mockDeliveryStore) {
				m.On("List", ctx, "r1").Return([]DeliveryPerson{ali}, nil).Once()
			},
			wantErr: ErrLastDeliveryPerson,
		},
		{
			name: "two remain, delete succeeds",
			id:   "d1",
			prepare: func(m *mockDeliveryStore) {
				m.On("List", ctx, "r1").Return([]DeliveryPerson{ali, sara}, nil).Once()
				m.On("Delete", ctx, "r1", "d1").Return(nil).Once()
			},
		},
		{
			name: "unknown id",
			id:   "d9",
			prepare: func(m *mockDeliveryStore) {
				m.On("List", ctx, "r1").Return([]DeliveryPerson{ali, sara}, nil).Once()
			},
			wantErr: ErrDeliveryPersonNotFound,
		},
		{
			name: "store re-check wins a race",
			id:   "d2",
			prepare: func(m *mockDeliveryStore) {
				m.On("List", ctx, "r1").Return([]DeliveryPerson{ali, sara}, nil).Once()
				m.On("Delete", ctx, "r1", "d2").Return(ErrLastDeliveryPerson).Once()
			},
			wantErr: ErrLastDeliveryPerson,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockDeliveryStore{}
			tc.prepare(store)
			svc := &DeliveryService{Store: store}

			err := svc.Remove(ctx, "r1", tc.id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestDeliveryService_RemoveLeavesRemainder(t *testing.T) {
	ctx := context.Background()
	people := []DeliveryPerson{{ID: "d1"}, {ID: "d2"}, {ID: "d3"}}
	store := &mockDeliveryStore{}
	store.On("List", ctx, "r1").Return(people, nil).Once()
	store.On("Delete", ctx, "r1", "d2").Return(nil).Once()
	store.On("List", ctx, "r1").Return([]DeliveryPerson{people[0], people[2]}, nil).Once()

	svc := &DeliveryService{Store: store}
	assert.NoError(t, svc.Remove(ctx, "r1", "d2"))

	left, err := svc.List(ctx, "r1")
	assert.NoError(t, err)
	assert.Equal(t, []DeliveryPerson{{ID: "d1"}, {ID: "d3"}}, left)
}

func TestDeliveryService_AddValidates(t *testing.T) {
	store := &mockDeliveryStore{}
	svc := &DeliveryService{Store: store}

	_, err := svc.Add(context.Background(), "r1", " ", "0991")
	assert.ErrorIs(t, err, ErrInvalidDeliveryPerson)
	store.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAddError_ForeignKeyMeansUnknownRestaurant(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "delivery_persons_restaurant_id_fkey"})
	assert.ErrorIs(t, addError(fk), ErrUnknownRestaurant)

	unique := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, error(unique), addError(unique))
	assert.NoError(t, addError(nil))

	other := errors.New("conn reset")
	assert.Equal(t, other, addError(other))
}
