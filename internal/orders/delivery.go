package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type DeliveryStore interface {
	List(ctx context.Context, restaurantID string) ([]DeliveryPerson, error)
	Add(ctx context.Context, p DeliveryPerson) (DeliveryPerson, error)
	Delete(ctx context.Context, restaurantID, id string) error
}

var ErrInvalidDeliveryPerson = errors.New("delivery person needs a name and a phone")

// DeliveryService manages a restaurant's delivery people and enforces that at
// least one always remains.
type DeliveryService struct {
	Store DeliveryStore
}

func (s *DeliveryService) List(ctx context.Context, restaurantID string) ([]DeliveryPerson, error) {
	return s.Store.List(ctx, restaurantID)
}

func (s *DeliveryService) Add(ctx context.Context, restaurantID, name, phone string) (DeliveryPerson, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return DeliveryPerson{}, ErrInvalidDeliveryPerson
	}
	return s.Store.Add(ctx, DeliveryPerson{RestaurantID: restaurantID, Name: name, Phone: phone})
}

func (s *DeliveryService) Remove(ctx context.Context, restaurantID, id string) error {
	people, err := s.Store.List(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("list delivery persons: %w", err)
	}
	found := false
	for _, p := range people {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		return ErrDeliveryPersonNotFound
	}
	if len(people) <= 1 {
		return ErrLastDeliveryPerson
	}
	return s.Store.Delete(ctx, restaurantID, id)
}
