package transport

import (
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents a product payload. Prices accept JSON numbers or
// strings.
type ProductRequest struct {
	Name       string           `json:"name" validate:"notblank"`
	Quantity   *int             `json:"quantity" validate:"required"`
	BuyPrice   *decimal.Decimal `json:"buy_price" validate:"required"`
	SalePrice  *decimal.Decimal `json:"sale_price" validate:"required"`
	CategoryID int64            `json:"category_id" validate:"required"`
	MediaID    *int64           `json:"media_id"`
}

// ProductHandler manages the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)

		manage := middleware.RequireCapability(h.logger, domain.ManageProducts)
		r.With(manage).Post("/", h.Create)
		r.With(manage).Put("/{id}", h.Update)
		r.With(middleware.RequireCapability(h.logger, domain.DeleteRecords)).Delete("/{id}", h.Delete)
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list products", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"products": products})
}

// Search backs the sale form's product lookup
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.Search(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to search products", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get product", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"product": product})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to create product", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "Product added successfully",
		"product": product,
	})
}

// Update replaces every editable field. The quantity sent becomes the new
// stock on hand.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update product", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrProductNotFound)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete product", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:       req.Name,
		Quantity:   *req.Quantity,
		BuyPrice:   *req.BuyPrice,
		SalePrice:  *req.SalePrice,
		CategoryID: req.CategoryID,
		MediaID:    req.MediaID,
	}
}
