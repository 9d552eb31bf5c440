package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-relay/internal/orders"
)

type LiveOrders interface {
	Get(id string) (orders.Order, error)
	List() []orders.Order
}

type StatusLookup interface {
	Status(ctx context.Context, orderID string) (orders.Status, error)
}

type DurableStatus interface {
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type StatsSource interface {
	Stats(ctx context.Context, p orders.Period) (orders.Stats, error)
}

// OrdersHandler exposes the live registry and the reporting queries.
type OrdersHandler struct {
	Live    LiveOrders
	Cache   StatusLookup  // optional
	Durable DurableStatus // optional
	Stats   StatsSource
}

type orderStatusResp struct {
	OrderID string        `json:"order_id"`
	Status  orders.Status `json:"status"`
	Live    bool          `json:"live"`
}

type statsResp struct {
	Period orders.Period `json:"period"`
	orders.Stats
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/stats/{period}", h.getStats)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list := h.Live.List()
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

// getOrder answers from the live registry first, then the status cache, then
// the durable table. Only the live registry returns the full order.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if o, err := h.Live.Get(orderID); err == nil {
		writeJSON(w, http.StatusOK, o)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		if s, err := h.Cache.Status(ctx, orderID); err == nil {
			writeJSON(w, http.StatusOK, orderStatusResp{OrderID: orderID, Status: s})
			return
		}
	}
	if h.Durable != nil {
		s, err := h.Durable.GetOrderStatus(ctx, orderID)
		if err == nil {
			writeJSON(w, http.StatusOK, orderStatusResp{OrderID: orderID, Status: s})
			return
		}
		if !errors.Is(err, orders.ErrOrderNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeError(w, http.StatusNotFound, "not found")
}

func (h *OrdersHandler) getStats(w http.ResponseWriter, r *http.Request) {
	p := orders.Period(chi.URLParam(r, "period"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Stats.Stats(ctx, p)
	switch {
	case errors.Is(err, orders.ErrUnknownPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, statsResp{Period: p, Stats: st})
	}
}
