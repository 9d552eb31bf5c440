package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-relay/internal/orders"
)

type DeliveryAdmin interface {
	List(ctx context.Context, restaurantID string) ([]orders.DeliveryPerson, error)
	Add(ctx context.Context, restaurantID, name, phone string) (orders.DeliveryPerson, error)
	Remove(ctx context.Context, restaurantID, id string) error
}

type DeliveryHandler struct {
	Svc DeliveryAdmin
}

type addDeliveryReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *DeliveryHandler) Register(r chi.Router) {
	r.Route("/restaurants/{rid}/delivery-persons", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Delete("/{id}", h.remove)
	})
}

func (h *DeliveryHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	people, err := h.Svc.List(ctx, chi.URLParam(r, "rid"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if people == nil {
		people = []orders.DeliveryPerson{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *DeliveryHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addDeliveryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Svc.Add(ctx, chi.URLParam(r, "rid"), req.Name, req.Phone)
	switch {
	case errors.Is(err, orders.ErrInvalidDeliveryPerson):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrUnknownRestaurant):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "could not add delivery person")
	default:
		writeJSON(w, http.StatusCreated, p)
	}
}

func (h *DeliveryHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Svc.Remove(ctx, chi.URLParam(r, "rid"), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, orders.ErrLastDeliveryPerson):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrDeliveryPersonNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
