package transport

import (
	"net/http"
	"strconv"
	"time"

	"retail-pos/internal/middleware"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignInRequest represents the sign-in request payload
type SignInRequest struct {
	CashierID string `json:"cashier_id" validate:"required"`
	PIN       string `json:"pin" validate:"required,min=4,max=12"`
}

// SignInResponse carries the shift token for the register
type SignInResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	CashierID  string    `json:"cashier_id"`
	RegisterID int       `json:"register_id"`
}

// ShiftHandler handles cashier sign-in and sign-out at registers
type ShiftHandler struct {
	shiftService service.ShiftService
	logger       *zap.Logger
}

// NewShiftHandler creates a new ShiftHandler
func NewShiftHandler(shiftService service.ShiftService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftService: shiftService,
		logger:       logger,
	}
}

// RegisterRoutes registers the shift routes under a register subrouter
func (h *ShiftHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Post("/sign-in", h.SignIn)
	r.With(guards...).Post("/sign-out", h.SignOut)
}

// ListAssignments handles GET /api/registers
func (h *ShiftHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.shiftService.Assignments())
}

// SignIn handles a cashier starting a shift at a register
func (h *ShiftHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	registerID, err := strconv.Atoi(chi.URLParam(r, "registerID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid register id")
		return
	}

	var req SignInRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sign-in validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	token, expiresAt, err := h.shiftService.SignIn(r.Context(), registerID, req.CashierID, req.PIN)
	if err != nil {
		h.logger.Debug("Sign-in failed",
			zap.Int("register_id", registerID),
			zap.String("cashier_id", req.CashierID),
			zap.Error(err),
		)
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SignInResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		CashierID:  req.CashierID,
		RegisterID: registerID,
	})
}

// SignOut ends the shift of the authenticated cashier
func (h *ShiftHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := middleware.GetCashierID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "cashier not authenticated")
		return
	}
	registerID, ok := middleware.GetRegisterID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "register not authenticated")
		return
	}

	if err := h.shiftService.SignOut(r.Context(), registerID, cashierID); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
