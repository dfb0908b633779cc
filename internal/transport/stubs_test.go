package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret-0123456789abcdef"

type stubAuthService struct {
	login   func(username, password string) (*service.LoginResult, error)
	current func(id int64) (*domain.User, domain.Capabilities, error)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return s.login(username, password)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, id int64) (*domain.User, domain.Capabilities, error) {
	return s.current(id)
}

type stubProductService struct {
	products map[int64]*domain.Product
	created  []service.ProductInput
	err      error
}

func (s *stubProductService) List(ctx context.Context) ([]*domain.Product, error) {
	list := []*domain.Product{}
	for _, p := range s.products {
		list = append(list, p)
	}
	return list, s.err
}

func (s *stubProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductService) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	return []*domain.Product{}, s.err
}

func (s *stubProductService) Create(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &domain.Product{ID: int64(len(s.created)), Name: input.Name, Quantity: input.Quantity}, nil
}

func (s *stubProductService) Update(ctx context.Context, id int64, input service.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id, Name: input.Name, Quantity: input.Quantity}, nil
}

func (s *stubProductService) Delete(ctx context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

type stubSaleService struct {
	actors []int64
	inputs []service.SaleInput
	err    error
}

func (s *stubSaleService) List(ctx context.Context, limit int) ([]*domain.Sale, error) {
	return []*domain.Sale{}, s.err
}

func (s *stubSaleService) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	return nil, domain.ErrSaleNotFound
}

func (s *stubSaleService) Create(ctx context.Context, actorID int64, input service.SaleInput) (*domain.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.actors = append(s.actors, actorID)
	s.inputs = append(s.inputs, input)
	return &domain.Sale{ID: 1, ProductID: input.ProductID, Quantity: input.Quantity, Price: input.Price, CreatedBy: &actorID}, nil
}

func (s *stubSaleService) Update(ctx context.Context, id int64, input service.SaleInput) (*domain.Sale, error) {
	return nil, s.err
}

func (s *stubSaleService) Delete(ctx context.Context, id int64) error {
	return s.err
}

type stubMediaService struct {
	uploaded [][]byte
	err      error
}

func (s *stubMediaService) List(ctx context.Context) ([]*domain.Media, error) {
	return []*domain.Media{}, nil
}

func (s *stubMediaService) Get(ctx context.Context, id int64) (*domain.Media, error) {
	return nil, domain.ErrMediaNotFound
}

func (s *stubMediaService) Upload(ctx context.Context, file io.Reader) (*domain.Media, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	s.uploaded = append(s.uploaded, data)
	return &domain.Media{ID: 1, FileName: "f.png", FileType: "image/png", FileSize: int64(len(data))}, nil
}

func (s *stubMediaService) UploadMany(ctx context.Context, files []io.Reader) ([]*domain.Media, error) {
	media := []*domain.Media{}
	for i, file := range files {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		if s.err != nil {
			return nil, s.err
		}
		s.uploaded = append(s.uploaded, data)
		media = append(media, &domain.Media{ID: int64(i + 1), FileSize: int64(len(data))})
	}
	return media, nil
}

func (s *stubMediaService) Delete(ctx context.Context, id int64) error {
	return s.err
}

type stubReportService struct {
	ranges [][2]time.Time
	err    error
}

func (s *stubReportService) Daily(ctx context.Context, day time.Time) (*domain.SalesReport, error) {
	s.ranges = append(s.ranges, [2]time.Time{day, day})
	return &domain.SalesReport{Sales: []*domain.Sale{}}, s.err
}

func (s *stubReportService) DailySummary(ctx context.Context, year int, month time.Month) ([]domain.DailySales, error) {
	return []domain.DailySales{}, s.err
}

func (s *stubReportService) Monthly(ctx context.Context, year int) (*domain.MonthlyReport, error) {
	return &domain.MonthlyReport{Year: year}, s.err
}

func (s *stubReportService) Range(ctx context.Context, start, end time.Time) (*domain.SalesReport, error) {
	s.ranges = append(s.ranges, [2]time.Time{start, end})
	if start.After(end) {
		return nil, domain.ErrInvalidDateRange
	}
	return &domain.SalesReport{Sales: []*domain.Sale{}}, s.err
}

func (s *stubReportService) ExportRange(ctx context.Context, start, end time.Time, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("PK-workbook"))
	return err
}

func (s *stubReportService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	return &domain.Dashboard{Alerts: []domain.Alert{}}, s.err
}

func (s *stubReportService) Analytics(ctx context.Context) (*domain.Analytics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Analytics{TopProducts: []domain.ProductSales{{ProductID: 3, ProductName: "Pen", TotalSold: 8}}}, nil
}

func (s *stubReportService) QuickStats(ctx context.Context) (*domain.QuickStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.QuickStats{Month: domain.MonthStats{SalesChange: 12.5}}, nil
}

// testAPI mounts handlers behind the real auth middleware
type testAPI struct {
	router http.Handler
	tokens *auth.TokenManager
}

func newTestAPI(t *testing.T, register func(r chi.Router)) *testAPI {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, zap.NewNop()))
		register(r)
	})
	return &testAPI{router: r, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, req *http.Request, level int) *httptest.ResponseRecorder {
	t.Helper()
	if level > 0 {
		token, err := a.tokens.Issue(auth.Identity{UserID: 42, Username: "clerk", Level: level})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
