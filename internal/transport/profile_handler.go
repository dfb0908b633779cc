package transport

import (
	"net/http"

	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileRequest carries the fields users may change about themselves
type ProfileRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Username string `json:"username" validate:"notblank"`
}

// PasswordRequest represents a password change
type PasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ProfileHandler lets any authenticated user manage their own account
type ProfileHandler struct {
	userService service.UserService
	maxUpload   int64
	logger      *zap.Logger
}

func NewProfileHandler(userService service.UserService, maxUpload int64, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		maxUpload:   maxUpload,
		logger:      logger,
	}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/profile", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/password", h.ChangePassword)
		r.Post("/image", h.UploadImage)
	})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get profile", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"user": user})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identity.UserID, service.ProfileInput{
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update profile", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Account updated",
		"user":    user,
	})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req PasswordRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	err := h.userService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to change password", err)
		return
	}

	h.logger.Info("Password changed", zap.Int64("user_id", identity.UserID))
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Password changed"})
}

func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	file, ok := uploadedFile(w, r, "file", h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	user, err := h.userService.UpdateAvatar(r.Context(), identity.UserID, file)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update profile image", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Profile image updated",
		"user":    user,
	})
}
