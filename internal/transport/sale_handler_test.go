package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"stockroom/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSaleAPI(t *testing.T, svc *stubSaleService) *testAPI {
	return newTestAPI(t, func(r chi.Router) {
		NewSaleHandler(svc, zap.NewNop()).RegisterRoutes(r)
	})
}

func TestSaleCreate_RecordsCaller(t *testing.T) {
	svc := &stubSaleService{}
	api := newSaleAPI(t, svc)

	w := api.do(t, jsonBody(http.MethodPost, "/api/sales", `{"product_id":3,"quantity":4,"price":"15.00"}`), domain.LevelUser)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []int64{42}, svc.actors)
	require.Len(t, svc.inputs, 1)
	assert.Equal(t, 4, svc.inputs[0].Quantity)
	assert.Equal(t, "15", svc.inputs[0].Price.String())
	assert.Contains(t, w.Body.String(), `"message":"Sale added"`)
}

func TestSaleCreate_InsufficientStock(t *testing.T) {
	api := newSaleAPI(t, &stubSaleService{err: domain.ErrInsufficientStock})

	w := api.do(t, jsonBody(http.MethodPost, "/api/sales", `{"product_id":3,"quantity":11,"price":1}`), domain.LevelUser)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Insufficient quantity"`)
}

func TestSaleCreate_MissingFields(t *testing.T) {
	svc := &stubSaleService{}
	api := newSaleAPI(t, svc)

	w := api.do(t, jsonBody(http.MethodPost, "/api/sales", `{"product_id":3}`), domain.LevelUser)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantity can't be blank.")
	assert.Contains(t, w.Body.String(), "price can't be blank.")
	assert.Empty(t, svc.inputs)
}

func TestSaleRoutes(t *testing.T) {
	api := newSaleAPI(t, &stubSaleService{})

	w := api.do(t, httptest.NewRequest(http.MethodDelete, "/api/sales/1", nil), domain.LevelUser)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, httptest.NewRequest(http.MethodDelete, "/api/sales/1", nil), domain.LevelSpecial)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, httptest.NewRequest(http.MethodGet, "/api/sales/1", nil), domain.LevelUser)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, httptest.NewRequest(http.MethodGet, "/api/sales?limit=5", nil), domain.LevelUser)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"sales":[]}`, w.Body.String())
}

func TestSaleUpdate_MalformedBody(t *testing.T) {
	api := newSaleAPI(t, &stubSaleService{})

	w := api.do(t, jsonBody(http.MethodPut, "/api/sales/1", `{"product_id":`), domain.LevelUser)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}
