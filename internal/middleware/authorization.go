package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequireRegisterMatch ensures the {registerID} in the route is the register
// the token was issued for, so a cashier can only ring sales on their own till
func RequireRegisterMatch(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenRegister, ok := GetRegisterID(r.Context())
			if !ok {
				logger.Warn("Register not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			routeRegister, err := strconv.Atoi(chi.URLParam(r, "registerID"))
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "invalid register id")
				return
			}

			if routeRegister != tokenRegister {
				logger.Warn("Token used for another register",
					zap.Int("token_register_id", tokenRegister),
					zap.Int("register_id", routeRegister),
				)
				RespondWithError(w, http.StatusForbidden, "token was issued for another register")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
