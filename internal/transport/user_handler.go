package transport

import (
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateUserRequest represents the payload for a new account
type CreateUserRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
	Level    int    `json:"user_level" validate:"required"`
}

// UpdateUserRequest represents the payload for editing an account. An empty
// password keeps the current one.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Username string `json:"username" validate:"notblank"`
	Level    int    `json:"user_level" validate:"required"`
	Status   *bool  `json:"status" validate:"required"`
	Password string `json:"password"`
}

// StatusRequest toggles an account on or off
type StatusRequest struct {
	Status *bool `json:"status" validate:"required"`
}

// UserHandler handles HTTP requests for account management
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes mounts /api/users. Callers must already be authenticated.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.RequireCapability(h.logger, domain.ManageUsers))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/status", h.SetStatus)
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list users", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get user", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Level:    req.Level,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to create user", err)
		return
	}

	h.logger.Info("User created", zap.Int64("user_id", user.ID), zap.Int("user_level", user.Level))
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "User account has been created",
		"user":    user,
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, domain.ErrUserNotFound)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), identity.UserID, id, service.UpdateUserInput{
		Name:     req.Name,
		Username: req.Username,
		Level:    req.Level,
		Active:   *req.Status,
		Password: req.Password,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update user", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Account updated",
		"user":    user,
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, domain.ErrUserNotFound)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), identity.UserID, id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete user", err)
		return
	}

	h.logger.Info("User deleted", zap.Int64("user_id", id), zap.Int64("by", identity.UserID))
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "User deleted"})
}

func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, domain.ErrUserNotFound)
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.SetStatus(r.Context(), identity.UserID, id, *req.Status)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to change user status", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "User status updated",
		"user":    user,
	})
}
