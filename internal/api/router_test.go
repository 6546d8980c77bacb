package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fastprodman/coinmarket/internal/infra/idempotency"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/fastprodman/coinmarket/internal/services/market"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	handler   http.Handler
	ledger    *fakeLedger
	inventory *fakeInventory
	market    *fakeMarket
}

func newTestAPI(t *testing.T, withIdempotency bool) *testAPI {
	t.Helper()

	ta := &testAPI{
		ledger:    &fakeLedger{},
		inventory: newFakeInventory(),
		market:    &fakeMarket{},
	}

	d := Deps{
		Accounts:  newFakeAccounts(),
		Ledger:    ta.ledger,
		Inventory: ta.inventory,
		Market:    ta.market,
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	if withIdempotency {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		d.Idempotency = idempotency.New(rdb, time.Hour)
	}

	ta.handler = NewRouter(d)

	return ta
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())

	return v
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)
	rec := ta.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodGet, "/api/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgNoCredentials, decode[map[string]string](t, rec)["detail"])
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = ta.do(t, http.MethodGet, "/api/v1/user", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/v1/user", "buyer-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, accountResponse{ID: 2, Username: "buyer", Role: "BUYER", Deposit: 100}, decode[accountResponse](t, rec))
}

func TestRoleChecks(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"seller_cannot_deposit", http.MethodPost, "/api/v1/deposit", "seller-token", map[string]int{"amount": 5}},
		{"seller_cannot_reset", http.MethodPost, "/api/v1/reset", "seller-token", nil},
		{"seller_cannot_buy", http.MethodPost, "/api/v1/buy", "seller-token", map[string]int{"product_id": 10, "amount_products": 1}},
		{"seller_has_no_history", http.MethodGet, "/api/v1/purchases", "seller-token", nil},
		{"buyer_cannot_create_product", http.MethodPost, "/api/v1/products", "buyer-token", map[string]any{"name": "x", "cost": 5, "amount_available": 1}},
		{"non_owner_cannot_update", http.MethodPut, "/api/v1/products/10", "other-token", map[string]any{"cost": 5}},
		{"non_owner_cannot_delete", http.MethodDelete, "/api/v1/products/10", "other-token", nil},
		{"buyer_cannot_delete", http.MethodDelete, "/api/v1/products/10", "buyer-token", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ta.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		})
	}

	assert.Zero(t, ta.ledger.deposits)
	assert.Zero(t, ta.market.calls)
	assert.Empty(t, ta.inventory.deleted)
}

func TestDeposit(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deposit":50}`, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 103})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"amount": {
		"Deposit amount can only be a multiple of 5.",
		"Deposit amount can be set values between 0 to 100.",
	}}, decode[map[string][]string](t, rec))

	rec = ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"amount": {msgRequired}}, decode[map[string][]string](t, rec))

	rec = ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]any{"amount": 5, "extra": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/reset", "buyer-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deposit":0}`, rec.Body.String())
}

func TestBuy(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 10, "amount_products": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"change":70,"product_name":"Cola","total_cost":30}`, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 404, "amount_products": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 10})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"amount_products": {msgRequired}}, decode[map[string][]string](t, rec))
}

func TestBuy_Rejected(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)
	ta.market.err = errors.Join(errors.New("purchase"), &market.PurchaseRejectedError{Details: []string{
		"Insufficient funds. Please make sure to have at least 60 in your deposit.",
		"Product insufficient stock. You can only buy a total of 2.",
	}})

	rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 10, "amount_products": 3})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"details": {
		"Insufficient funds. Please make sure to have at least 60 in your deposit.",
		"Product insufficient stock. You can only buy a total of 2.",
	}}, decode[map[string][]string](t, rec))
}

func TestBuy_GuardedUpdateShortfall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"funds", fmt.Errorf("purchase: debit buyer: %w", users.ErrInsufficientFunds), []string{msgNoFunds}},
		{"stock", fmt.Errorf("purchase: decrement stock: %w", products.ErrInsufficientStock), []string{msgNoStock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ta := newTestAPI(t, false)
			ta.market.err = tt.err

			rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 10, "amount_products": 1})
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string][]string{"details": tt.want}, decode[map[string][]string](t, rec))
		})
	}
}

func TestBuy_InternalErrorIsOpaque(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)
	ta.market.err = errors.New("connection reset by peer")

	rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", map[string]int{"product_id": 10, "amount_products": 1})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestPurchases(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodGet, "/api/v1/purchases", "buyer-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, float64(10), got[0]["product_id"])
	assert.Nil(t, got[1]["product_id"])
}

func TestProducts(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":10,"name":"Cola","seller_id":1,"amount_available":20,"cost":10}]`, rec.Body.String())

	rec = ta.do(t, http.MethodGet, "/api/v1/products/10", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/v1/products/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/v1/products/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/products", "seller-token", map[string]any{"name": "Chips", "cost": 25, "amount_available": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/products/11", rec.Header().Get("Location"))

	rec = ta.do(t, http.MethodPost, "/api/v1/products", "seller-token", map[string]any{"name": "Chips", "cost": 12, "amount_available": 10})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"cost": {"Product cost can only be a multiple of 5."}}, decode[map[string][]string](t, rec))

	rec = ta.do(t, http.MethodPost, "/api/v1/products", "seller-token", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[map[string][]string](t, rec), 3)

	rec = ta.do(t, http.MethodPut, "/api/v1/products/10", "seller-token", map[string]any{"cost": 15})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productResponse{ID: 10, Name: "Cola", SellerID: 1, AmountAvailable: 20, Cost: 15}, decode[productResponse](t, rec))

	rec = ta.do(t, http.MethodPut, "/api/v1/products/404", "seller-token", map[string]any{"cost": 15})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(t, http.MethodDelete, "/api/v1/products/10", "seller-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uint64{10}, ta.inventory.deleted)
}

func TestAccounts(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, false)

	rec := ta.do(t, http.MethodPost, "/api/v1/user", "", map[string]string{"username": "new", "password": "pw", "role": "SELLER"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "SELLER", decode[accountResponse](t, rec).Role)

	rec = ta.do(t, http.MethodPost, "/api/v1/user", "", map[string]string{"username": "buyer", "password": "pw", "role": "BUYER"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"username": {"Username is already taken. Please choose another one"}}, decode[map[string][]string](t, rec))

	rec = ta.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "buyer", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"buyer-token","expires_at":"2030-01-01T00:00:00Z"}`, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "buyer", "password": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgLoginFailed, decode[map[string]string](t, rec)["details"])

	rec = ta.do(t, http.MethodPut, "/api/v1/user", "buyer-token", map[string]string{"username": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "renamed", decode[accountResponse](t, rec).Username)

	rec = ta.do(t, http.MethodPut, "/api/v1/change-password", "buyer-token", map[string]string{"old_password": "bad", "new_password": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string][]string{"old_password": {"Old password didn't match"}}, decode[map[string][]string](t, rec))

	rec = ta.do(t, http.MethodPut, "/api/v1/change-password", "buyer-token", map[string]string{"old_password": "pw", "new_password": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", decode[map[string]any](t, rec)["message"])
}

func TestIdempotentReplay(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, true)

	first := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 20}, headerIdempotencyKey, "k1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(headerReplayed))

	second := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 20}, headerIdempotencyKey, "k1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(headerReplayed))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, ta.ledger.deposits)

	third := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 20}, headerIdempotencyKey, "k2")
	require.Equal(t, http.StatusOK, third.Code)
	assert.JSONEq(t, `{"deposit":40}`, third.Body.String())

	rejected := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 7}, headerIdempotencyKey, "k3")
	require.Equal(t, http.StatusBadRequest, rejected.Code)

	replayed := ta.do(t, http.MethodPost, "/api/v1/deposit", "buyer-token", map[string]int{"amount": 7}, headerIdempotencyKey, "k3")
	assert.Equal(t, http.StatusBadRequest, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get(headerReplayed))
}

func TestIdempotent_ServerErrorsAreNotStored(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, true)
	ta.market.err = errors.New("db down")

	body := map[string]int{"product_id": 10, "amount_products": 1}

	rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", body, headerIdempotencyKey, "retry-me")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	ta.market.err = nil

	rec = ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token", body, headerIdempotencyKey, "retry-me")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(headerReplayed))
	assert.Equal(t, 2, ta.market.calls)
}

func TestIdempotent_KeyReusedWithDifferentBody(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t, true)

	rec := ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token",
		map[string]int{"product_id": 10, "amount_products": 1}, headerIdempotencyKey, "once")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token",
		map[string]int{"product_id": 10, "amount_products": 2}, headerIdempotencyKey, "once")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgKeyReused, decode[map[string]string](t, rec)["detail"])
	assert.Empty(t, rec.Header().Get(headerReplayed))
	assert.Equal(t, 1, ta.market.calls)

	rec = ta.do(t, http.MethodPost, "/api/v1/buy", "buyer-token",
		map[string]int{"product_id": 10, "amount_products": 1}, headerIdempotencyKey, "once")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(headerReplayed))
	assert.Equal(t, 1, ta.market.calls)
}
