package transport

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"retail-pos/internal/domain"
	"retail-pos/internal/middleware"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleLine is one requested product and quantity
type SaleLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// SaleRequest represents the sale request payload
type SaleRequest struct {
	Items    []SaleLine `json:"items" validate:"required,min=1,dive"`
	Tendered string     `json:"tendered" validate:"required,money"`
}

// SaleHandler handles HTTP requests for ringing up sales
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers the sale route under a register subrouter.
// The subrouter is expected to authenticate and match the register already.
func (h *SaleHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.With(guards...).Post("/sales", h.ProcessSale)
}

// ProcessSale handles a sale at the register named in the route
func (h *SaleHandler) ProcessSale(w http.ResponseWriter, r *http.Request) {
	registerID, err := strconv.Atoi(chi.URLParam(r, "registerID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid register id")
		return
	}

	var req SaleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sale validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	tendered, err := decimal.NewFromString(req.Tendered)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid tendered amount")
		return
	}

	items, err := mergeLines(req.Items)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	receipt, err := h.saleService.ProcessSale(r.Context(), registerID, items, tendered)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, receipt)
}

// mergeLines sums the quantities of repeated products into one line each.
// A sum that does not fit in an int is rejected rather than wrapped.
func mergeLines(lines []SaleLine) (map[string]int, error) {
	items := make(map[string]int, len(lines))
	for _, line := range lines {
		if items[line.ProductID] > math.MaxInt-line.Quantity {
			return nil, fmt.Errorf("%w: product %s total quantity is too large", domain.ErrInvalidQuantity, line.ProductID)
		}
		items[line.ProductID] += line.Quantity
	}
	return items, nil
}
