package middleware

import (
	"context"
	"net/http"
	"strings"

	"stockroom/internal/auth"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier turns a bearer token into the identity it was issued for
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// AuthMiddleware requires a valid bearer token and stores its identity in
// the request context
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			identity, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			logger.Debug("User authenticated",
				zap.Int64("user_id", identity.UserID),
				zap.Int("user_level", identity.Level),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the authenticated identity from the request context
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok && identity != nil
}
