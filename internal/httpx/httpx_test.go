package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-relay/internal/orders"
)

type fakeStatus map[string]orders.Status

func (f fakeStatus) Status(ctx context.Context, id string) (orders.Status, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return "", orders.ErrOrderNotFound
}

func (f fakeStatus) GetOrderStatus(ctx context.Context, id string) (orders.Status, error) {
	return f.Status(ctx, id)
}

type fakeStats struct{}

func (fakeStats) Stats(ctx context.Context, p orders.Period) (orders.Stats, error) {
	if _, _, err := orders.Range(p, time.Now()); err != nil {
		return orders.Stats{}, err
	}
	return orders.Stats{Count: 3, Total: 4500}, nil
}

type mockStore struct{ mock.Mock }

func (m *mockStore) List(ctx context.Context, rid string) ([]orders.DeliveryPerson, error) {
	args := m.Called(ctx, rid)
	people, _ := args.Get(0).([]orders.DeliveryPerson)
	return people, args.Error(1)
}

func (m *mockStore) Add(ctx context.Context, p orders.DeliveryPerson) (orders.DeliveryPerson, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orders.DeliveryPerson), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, rid, id string) error {
	return m.Called(ctx, rid, id).Error(0)
}

func newTestServer(t *testing.T, store *mockStore) *httptest.Server {
	t.Helper()
	live := orders.NewRegistry()
	live.Put(orders.Order{ID: "X1", Status: orders.StatusAccepted, SelectedTime: "15", CreatedAt: time.Now()})

	r := NewRouter()
	(&OrdersHandler{Live: live, Cache: fakeStatus{"OLD": orders.StatusRated}, Durable: fakeStatus{}, Stats: fakeStats{}}).Register(r)
	(&DeliveryHandler{Svc: &orders.DeliveryService{Store: store}}).Register(r)

	srv := httptest.NewServer(WithCORS(r, []string{"https://admin.example"}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &mockStore{})
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestGetOrder(t *testing.T) {
	srv := newTestServer(t, &mockStore{})

	res, body := do(t, http.MethodGet, srv.URL+"/orders/X1", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "15", body["selected_time"])

	res, body = do(t, http.MethodGet, srv.URL+"/orders/OLD", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "RATED", body["status"])

	res, _ = do(t, http.MethodGet, srv.URL+"/orders/nope", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestListOrders(t *testing.T) {
	srv := newTestServer(t, &mockStore{})
	res, err := http.Get(srv.URL + "/orders")
	require.NoError(t, err)
	defer res.Body.Close()

	var list []orders.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "X1", list[0].ID)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, &mockStore{})

	res, body := do(t, http.MethodGet, srv.URL+"/stats/this_month", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "this_month", body["period"])
	assert.Equal(t, 3.0, body["count"])
	assert.Equal(t, 4500.0, body["total"])

	res, _ = do(t, http.MethodGet, srv.URL+"/stats/fortnight", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDelivery_RemoveLastIsConflict(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, "r1").Return([]orders.DeliveryPerson{{ID: "d1"}}, nil)
	srv := newTestServer(t, store)

	res, body := do(t, http.MethodDelete, srv.URL+"/restaurants/r1/delivery-persons/d1", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body["error"], "at least one")
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelivery_Remove(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, "r1").Return([]orders.DeliveryPerson{{ID: "d1"}, {ID: "d2"}}, nil)
	store.On("Delete", mock.Anything, "r1", "d2").Return(nil)
	srv := newTestServer(t, store)

	res, _ := do(t, http.MethodDelete, srv.URL+"/restaurants/r1/delivery-persons/d2", "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = do(t, http.MethodDelete, srv.URL+"/restaurants/r1/delivery-persons/zz", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	store.AssertExpectations(t)
}

func TestDelivery_Add(t *testing.T) {
	store := &mockStore{}
	store.On("Add", mock.Anything, orders.DeliveryPerson{RestaurantID: "r1", Name: "Ali", Phone: "0991"}).
		Return(orders.DeliveryPerson{ID: "d9", RestaurantID: "r1", Name: "Ali", Phone: "0991"}, nil)
	srv := newTestServer(t, store)

	res, body := do(t, http.MethodPost, srv.URL+"/restaurants/r1/delivery-persons/", `{"name":" Ali ","phone":"0991"}`)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "d9", body["id"])

	res, _ = do(t, http.MethodPost, srv.URL+"/restaurants/r1/delivery-persons/", `{"name":"","phone":"1"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = do(t, http.MethodPost, srv.URL+"/restaurants/r1/delivery-persons/", `{`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	store.AssertExpectations(t)
}

func TestDelivery_AddUnknownRestaurant(t *testing.T) {
	store := &mockStore{}
	store.On("Add", mock.Anything, mock.Anything).Return(orders.DeliveryPerson{}, orders.ErrUnknownRestaurant)
	srv := newTestServer(t, store)

	res, body := do(t, http.MethodPost, srv.URL+"/restaurants/ghost/delivery-persons/", `{"name":"Ali","phone":"0991"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, orders.ErrUnknownRestaurant.Error(), body["error"])
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &mockStore{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/orders", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://admin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "https://admin.example", res.Header.Get("Access-Control-Allow-Origin"))
}
