package transport

import (
	"net/http"
	"strconv"

	"retail-pos/internal/analytics"
	"retail-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultTopProducts = 5
	defaultTopCashiers = 3
	maxTopEntries      = 100
)

// SummaryProvider produces analytics snapshots
type SummaryProvider interface {
	SummaryWithLimits(productLimit, cashierLimit int) analytics.Summary
}

// RevenueSource reports revenue committed by the sale coordinator
type RevenueSource interface {
	Revenue() decimal.Decimal
}

// SummaryResponse is the analytics summary plus the coordinator's running revenue.
// The two revenue figures differ only while analytics events are still queued.
type SummaryResponse struct {
	analytics.Summary
	CommittedRevenue decimal.Decimal `json:"committed_revenue"`
}

// AnalyticsHandler serves store performance reports
type AnalyticsHandler struct {
	summaries SummaryProvider
	revenue   RevenueSource
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(summaries SummaryProvider, revenue RevenueSource, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		summaries: summaries,
		revenue:   revenue,
		logger:    logger,
	}
}

// RegisterRoutes registers all analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/analytics/summary", h.Summary)
}

// Summary handles GET /api/analytics/summary?products=N&cashiers=M
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	products, err := limitParam(r, "products", defaultTopProducts)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid products limit")
		return
	}
	cashiers, err := limitParam(r, "cashiers", defaultTopCashiers)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cashiers limit")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SummaryResponse{
		Summary:          h.summaries.SummaryWithLimits(products, cashiers),
		CommittedRevenue: h.revenue.Revenue(),
	})
}

func limitParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxTopEntries {
		return 0, strconv.ErrRange
	}
	return n, nil
}
