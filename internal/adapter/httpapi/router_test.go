package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/ledger"
	"github.com/simaogato/multibank-backend/internal/usecase/dashboard"
)

func newTestRouter(t *testing.T) (http.Handler, *ledger.Store) {
	t.Helper()
	store := ledger.NewStore(ledger.Options{Currency: "RUB"})
	h := &Handler{
		Dashboard: dashboard.NewDashboardService(store, nil, "RUB", 2),
		Ledger:    store,
		Log:       zap.NewNop(),
	}
	return NewRouter(h), store
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRouter_Healthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)
	get(t, router, "/healthz")

	rec, _ := get(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_Summary(t *testing.T) {
	router, store := newTestRouter(t)
	_, err := store.CreateAccount("VBank", domain.AccountTypeChecking, decimal.NewFromInt(1500), nil)
	require.NoError(t, err)
	_, err = store.CreateAccount("ABank", domain.AccountTypeSavings, decimal.NewFromInt(500), nil)
	require.NoError(t, err)

	rec, body := get(t, router, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2000", body["total_balance"])
	assert.Equal(t, float64(2), body["active_accounts"])
	assert.Equal(t, "Bronze", body["level"])
	assert.NotContains(t, body, "current_quest")

	rec, body = get(t, router, "/api/v1/accounts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["accounts"], 2)
}

func TestRouter_History(t *testing.T) {
	router, store := newTestRouter(t)
	acc, err := store.CreateAccount("VBank", domain.AccountTypeChecking, decimal.Zero, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		store.RecordTransaction(domain.HistoryEntry{
			Kind:          domain.HistoryKindDeposit,
			AccountNumber: acc.AccountNumber,
			Amount:        decimal.NewFromInt(10),
		})
	}

	rec, body := get(t, router, "/api/v1/accounts/"+acc.AccountNumber+"/history?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["pages"])
	assert.Len(t, body["entries"], 1)

	rec, _ = get(t, router, "/api/v1/history?page=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/v1/history?page=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/v1/accounts/4000000000000000/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
