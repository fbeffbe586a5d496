package transport

import (
	"context"
	"net/http"
	"strconv"

	"retail-pos/internal/domain"
	"retail-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReceiptFinder looks up stored receipts
type ReceiptFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error)
}

// ReceiptLister pages through stored receipts newest first
type ReceiptLister interface {
	List(ctx context.Context, page, pageSize int) ([]*domain.Receipt, int, error)
}

// ReceiptPage represents a page of receipts
type ReceiptPage struct {
	Receipts []*domain.Receipt `json:"receipts"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}

// ReceiptHandler serves stored receipts
type ReceiptHandler struct {
	finder ReceiptFinder
	logger *zap.Logger
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(finder ReceiptFinder, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		finder: finder,
		logger: logger,
	}
}

// RegisterRoutes registers the receipt routes. Listing is only offered when
// the backing store can page.
func (h *ReceiptHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/receipts", func(r chi.Router) {
		if _, ok := h.finder.(ReceiptLister); ok {
			r.Get("/", h.List)
		}
		r.Get("/{receiptID}", h.Get)
	})
}

// Get returns one receipt
func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "receiptID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}

	receipt, err := h.finder.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}

// List handles GET /api/receipts?page=N&page_size=M
func (h *ReceiptHandler) List(w http.ResponseWriter, r *http.Request) {
	lister := h.finder.(ReceiptLister)

	page := 1
	pageSize := defaultPageSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid page size")
			return
		}
		pageSize = n
	}

	receipts, total, err := lister.List(r.Context(), page, pageSize)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ReceiptPage{
		Receipts: receipts,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}
