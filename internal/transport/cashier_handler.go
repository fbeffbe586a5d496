package transport

import (
	"net/http"

	"retail-pos/internal/middleware"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HireCashierRequest represents a new cashier with the PIN they sign in with
type HireCashierRequest struct {
	ID            string `json:"id" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=200"`
	PIN           string `json:"pin" validate:"required,numeric,min=4,max=12"`
	MonthlySalary string `json:"monthly_salary" validate:"required,money"`
}

// CashierHandler handles staff management
type CashierHandler struct {
	shiftService service.ShiftService
	logger       *zap.Logger
}

// NewCashierHandler creates a new CashierHandler
func NewCashierHandler(shiftService service.ShiftService, logger *zap.Logger) *CashierHandler {
	return &CashierHandler{
		shiftService: shiftService,
		logger:       logger,
	}
}

// RegisterRoutes registers the cashier routes behind guards
func (h *CashierHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.With(guards...).Post("/api/cashiers", h.Hire)
}

// Hire stores a new cashier and books the monthly salary as an expense
func (h *CashierHandler) Hire(w http.ResponseWriter, r *http.Request) {
	var req HireCashierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cashier validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	salary, err := decimal.NewFromString(req.MonthlySalary)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid monthly salary")
		return
	}

	cashier, err := h.shiftService.HireCashier(r.Context(), req.ID, req.Name, req.PIN, salary)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, cashier)
}
