package transport

import (
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryRequest represents a category payload
type CategoryRequest struct {
	Name string `json:"name" validate:"notblank"`
}

// CategoryHandler manages product categories
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		manage := middleware.RequireCapability(h.logger, domain.ManageCategories)
		r.With(manage).Post("/", h.Create)
		r.With(manage).Put("/{id}", h.Update)
		r.With(middleware.RequireCapability(h.logger, domain.ManageCategories, domain.DeleteRecords)).Delete("/{id}", h.Delete)
	})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list categories", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrCategoryNotFound)
	if !ok {
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get category", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"category": category})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.categoryService.Create(r.Context(), req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to create category", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message":  "Category added successfully",
		"category": category,
	})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrCategoryNotFound)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update category", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message":  "Category updated successfully",
		"category": category,
	})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrCategoryNotFound)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete category", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Category deleted successfully"})
}
