package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	CashierIDKey  contextKey = "cashier_id"
	RegisterIDKey contextKey = "register_id"
)

// AuthMiddleware validates register shift tokens and puts the cashier and
// register they were issued for into the request context
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}
			if !token.Valid {
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			cashierID, ok := claims["cashier_id"].(string)
			if !ok || cashierID == "" {
				logger.Warn("Missing cashier_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			// JSON numbers decode as float64
			rawRegister, ok := claims["register_id"].(float64)
			if !ok || rawRegister <= 0 || rawRegister != float64(int(rawRegister)) {
				logger.Warn("Missing register_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			registerID := int(rawRegister)

			ctx := context.WithValue(r.Context(), CashierIDKey, cashierID)
			ctx = context.WithValue(ctx, RegisterIDKey, registerID)

			logger.Debug("Register authenticated",
				zap.String("cashier_id", cashierID),
				zap.Int("register_id", registerID),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCashierID extracts the authenticated cashier from request context
func GetCashierID(ctx context.Context) (string, bool) {
	cashierID, ok := ctx.Value(CashierIDKey).(string)
	return cashierID, ok
}

// GetRegisterID extracts the authenticated register from request context
func GetRegisterID(ctx context.Context) (int, bool) {
	registerID, ok := ctx.Value(RegisterIDKey).(int)
	return registerID, ok
}
