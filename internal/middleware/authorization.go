package middleware

import (
	"net/http"

	"stockroom/internal/domain"

	"go.uber.org/zap"
)

// RequireCapability lets a request through only when the caller's role level
// grants every listed capability
func RequireCapability(logger *zap.Logger, capabilities ...domain.Capability) func(http.Handler) http.Handler {
	names := make([]string, len(capabilities))
	for i, c := range capabilities {
		names[i] = c.String()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				logger.Warn("Identity not found in context", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			if !domain.CapabilitiesFor(identity.Level).AllowsAll(capabilities...) {
				logger.Warn("User lacks required capability",
					zap.Int64("user_id", identity.UserID),
					zap.Int("user_level", identity.Level),
					zap.Strings("required", names),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
