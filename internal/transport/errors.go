package transport

import (
	"errors"
	"net/http"

	"retail-pos/internal/domain"
	"retail-pos/internal/middleware"
	"retail-pos/internal/repository"
	"retail-pos/internal/service"

	"go.uber.org/zap"
)

// statusOf maps an error kind to the HTTP status it is reported with
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrEmptyItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPayment):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownProduct),
		errors.Is(err, repository.ErrReceiptNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateProduct),
		errors.Is(err, repository.ErrCashierAlreadyExists),
		errors.Is(err, domain.ErrAlreadyAssigned),
		errors.Is(err, domain.ErrNotAssigned),
		errors.Is(err, domain.ErrUnassignedRegister),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrStockConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExpiredProduct),
		errors.Is(err, domain.ErrInsufficientPayment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistenceFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err using the structured error envelope.
// Unexpected errors are logged and reported without their text.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, status, "internal server error")
		return
	}

	var details map[string]interface{}
	var saleErr *service.SaleError
	if errors.As(err, &saleErr) {
		details = map[string]interface{}{"stage": string(saleErr.Stage)}
	}

	code := string(domain.CodeOf(err))
	if code == string(domain.CodeUnknown) {
		code = ""
	}
	middleware.RespondWithErrorCode(w, status, code, err.Error(), details)
}

// respondWithDecodeError reports a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
