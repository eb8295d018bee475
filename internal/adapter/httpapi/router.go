package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
	"github.com/simaogato/multibank-backend/internal/usecase/dashboard"
)

// Handler serves the operational endpoints and a read-only JSON view of the
// dashboard next to the gRPC service
type Handler struct {
	Dashboard *dashboard.DashboardService
	Ledger    domain.Ledger
	Log       *zap.Logger
}

// NewRouter builds the HTTP router
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/accounts", h.accounts)
		r.Get("/history", h.history)
		r.Get("/accounts/{number}/history", h.history)
	})
	return r
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.GetSummary(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	body := map[string]any{
		"total_balance":   summary.TotalBalance.String(),
		"currency":        summary.Currency,
		"active_accounts": summary.ActiveAccounts,
		"products":        summary.Products,
		"level":           summary.Level.Level,
		"active_points":   summary.ActivePoints,
		"is_premium":      summary.IsPremium,
	}
	if summary.CurrentQuest != nil {
		body["current_quest"] = map[string]any{
			"id":          summary.CurrentQuest.ID,
			"description": summary.CurrentQuest.Description,
			"prize":       summary.CurrentQuest.PrizeDisplayName(),
		}
	}
	if summary.Progress != nil {
		body["progress"] = summary.Progress.Text
	}
	h.write(w, http.StatusOK, body)
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.Ledger.ListAccounts()
	out := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, map[string]any{
			"id":             a.ID.String(),
			"bank":           a.Bank,
			"account_type":   a.AccountType,
			"account_number": a.FormattedNumber(),
			"balance":        a.Balance.String(),
			"currency":       a.Currency,
		})
	}
	h.write(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, domain.ErrValidation)
			return
		}
		page = n
	}

	result, err := h.Dashboard.GetHistory(r.Context(), chi.URLParam(r, "number"), page)
	if err != nil {
		h.fail(w, err)
		return
	}

	entries := make([]map[string]any, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, map[string]any{
			"id":          e.ID,
			"date":        e.Date,
			"kind":        e.Kind,
			"description": e.Description,
			"from":        e.FromAccount,
			"to":          e.ToAccount,
			"amount":      e.Amount.String(),
			"bank":        e.Bank,
		})
	}
	h.write(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   result.Total,
		"page":    result.Page,
		"pages":   result.Pages,
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	default:
		h.Log.Error("http request failed", zap.Error(err))
	}
	h.write(w, code, map[string]any{"error": err.Error()})
}

func (h *Handler) write(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Log.Warn("failed to encode response", zap.Error(err))
	}
}
