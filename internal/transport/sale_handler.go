package transport

import (
	"net/http"
	"strconv"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleRequest represents a sale line payload
type SaleRequest struct {
	ProductID int64            `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
}

// SaleHandler exposes the inventory ledger
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		record := middleware.RequireCapability(h.logger, domain.ManageProducts)
		r.With(record).Post("/", h.Create)
		r.With(record).Put("/{id}", h.Update)
		r.With(middleware.RequireCapability(h.logger, domain.DeleteRecords)).Delete("/{id}", h.Delete)
	})
}

// List returns the newest sales first. An optional ?limit= caps the result.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}

	sales, err := h.saleService.List(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list sales", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"sales": sales})
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleNotFound)
	if !ok {
		return
	}

	sale, err := h.saleService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get sale", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"sale": sale})
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req SaleRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	sale, err := h.saleService.Create(r.Context(), identity.UserID, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to record sale", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "Sale added",
		"sale":    sale,
	})
}

func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleNotFound)
	if !ok {
		return
	}

	var req SaleRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	sale, err := h.saleService.Update(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to update sale", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Sale updated",
		"sale":    sale,
	})
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrSaleNotFound)
	if !ok {
		return
	}

	if err := h.saleService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete sale", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Sale deleted"})
}

func (req SaleRequest) input() service.SaleInput {
	return service.SaleInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Price:     *req.Price,
	}
}
