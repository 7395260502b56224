package auth

import (
	"encoding/json"
	"net/http"

	"github.com/stagelink/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware authenticates requests with a bearer token and attaches the
// resulting UserContext to the request context
func Middleware(validator *TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := validator.Validate(raw)
			if err != nil {
				logger.Debug("token validation failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), user)))
		})
	}
}

// RequireRole rejects callers whose token role does not match. Routes behind
// this middleware must already be behind Middleware.
func RequireRole(role domain.Party) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if user.Role != role {
				writeAuthError(w, http.StatusForbidden, "Insufficient role for this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	errType := domain.ErrorTypeUnauthorized
	title := "Unauthorized"
	if status == http.StatusForbidden {
		errType = domain.ErrorTypeForbidden
		title = "Forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&domain.APIError{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
