package transport

import (
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GroupRequest represents a role group payload
type GroupRequest struct {
	Name   string `json:"group_name" validate:"notblank"`
	Level  *int   `json:"group_level" validate:"required"`
	Status *bool  `json:"group_status" validate:"required"`
}

// GroupHandler manages role groups
type GroupHandler struct {
	groupService service.GroupService
	logger       *zap.Logger
}

func NewGroupHandler(groupService service.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

func (h *GroupHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/groups", func(r chi.Router) {
		r.Use(middleware.RequireCapability(h.logger, domain.ManageSettings))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list groups", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrGroupNotFound)
	if !ok {
		return
	}

	group, err := h.groupService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get group", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"group": group})
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	group, err := h.groupService.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to create group", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "Group has been created",
		"group":   group,
	})
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrGroupNotFound)
	if !ok {
		return
	}

	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	group, err := h.groupService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update group", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Group has been updated",
		"group":   group,
	})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrGroupNotFound)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete group", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Group has been deleted"})
}

func (req GroupRequest) input() service.GroupInput {
	return service.GroupInput{
		Name:   req.Name,
		Level:  *req.Level,
		Active: *req.Status,
	}
}
