package transport

import (
	"net/http"

	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler serves login, logout and the current identity
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes mounts /api/auth. loginLimit wraps only the login route and
// may be nil.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware, loginLimit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		if loginLimit != nil {
			r.With(loginLimit).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "Login failed", err)
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message":     "Login successful",
		"token":       result.Token,
		"user":        result.User,
		"permissions": result.Permissions,
	})
}

// Logout is acknowledged only; the client discards its token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := middleware.IdentityFrom(r.Context()); ok {
		h.logger.Info("User logged out", zap.Int64("user_id", identity.UserID))
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

// Me returns the caller's account and capability set
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	user, permissions, err := h.authService.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to load current user", err)
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"user":        user,
		"permissions": permissions,
	})
}
