package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockroom/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// stubReportRepository records the ranges it was asked for.
type stubReportRepository struct {
	mu       sync.Mutex
	sales    []*domain.Sale
	summary  domain.SalesSummary
	// summaries overrides summary for ranges starting at the key
	summaries map[time.Time]domain.SalesSummary
	top       []domain.ProductSales
	counts   domain.Counts
	lowStock []*domain.Product
	lowCount int64
	quiet    int64
	dormant  int64
	fail     error

	ranges    [][2]time.Time
	zone      string
	threshold int
	topSince  time.Time
	topLimit  int
}

func (s *stubReportRepository) record(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges = append(s.ranges, [2]time.Time{from, to})
}

func (s *stubReportRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]*domain.Sale, error) {
	s.record(from, to)
	return s.sales, nil
}

func (s *stubReportRepository) Summary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	s.record(from, to)
	for start, summary := range s.summaries {
		if start.Equal(from) {
			return summary, nil
		}
	}
	return s.summary, nil
}

func (s *stubReportRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error) {
	s.mu.Lock()
	s.topSince, s.topLimit = since, limit
	s.mu.Unlock()
	return s.top, s.fail
}

func (s *stubReportRepository) DailyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.DailySales, error) {
	s.record(from, to)
	s.zone = tz
	return []domain.DailySales{}, nil
}

func (s *stubReportRepository) MonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.MonthlySales, error) {
	s.record(from, to)
	return []domain.MonthlySales{{Month: 2}}, nil
}

func (s *stubReportRepository) ProductMonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.ProductMonthlySales, error) {
	return []domain.ProductMonthlySales{{ProductID: 1, Month: 2}}, nil
}

func (s *stubReportRepository) Counts(ctx context.Context) (domain.Counts, error) {
	return s.counts, s.fail
}

func (s *stubReportRepository) LowStock(ctx context.Context, threshold, limit int) ([]*domain.Product, error) {
	s.mu.Lock()
	s.threshold = threshold
	s.mu.Unlock()
	return s.lowStock, nil
}

func (s *stubReportRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return s.lowCount, nil
}

func (s *stubReportRepository) CountProductsWithoutSalesSince(ctx context.Context, since time.Time) (int64, error) {
	return s.quiet, nil
}

func (s *stubReportRepository) CountUsersNotSeenSince(ctx context.Context, since time.Time) (int64, error) {
	return s.dormant, nil
}

func newReportFixture(t *testing.T, repo *stubReportRepository) (*reportService, *mockSaleRepository) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	sales := newMockSaleRepository(newMockProductRepository())
	return NewReportService(repo, sales, loc, 10).(*reportService), sales
}

func TestRange_CoversWholeDaysInclusive(t *testing.T) {
	repo := &stubReportRepository{}
	service, _ := newReportFixture(t, repo)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	report, err := service.Range(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", report.From)
	assert.Equal(t, "2024-03-03", report.To)
	require.NotEmpty(t, repo.ranges)
	from, to := repo.ranges[0][0], repo.ranges[0][1]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, service.loc), from)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, service.loc), to)

	_, err = service.Range(context.Background(), end, start)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestDailyAndMonthly(t *testing.T) {
	repo := &stubReportRepository{}
	service, _ := newReportFixture(t, repo)
	ctx := context.Background()

	report, err := service.Daily(ctx, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", report.From)
	assert.Equal(t, report.From, report.To)

	_, err = service.DailySummary(ctx, 2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", repo.zone)
	last := repo.ranges[len(repo.ranges)-1]
	assert.Equal(t, time.March, last[1].Month())

	monthly, err := service.Monthly(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, monthly.Year)
	assert.Len(t, monthly.Months, 1)
	assert.Len(t, monthly.Products, 1)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-05-06", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 6, day.Day())

	_, err = ParseDay("06/05/2024", time.UTC)
	assert.Error(t, err)
}

func TestExportRange_WritesWorkbook(t *testing.T) {
	repo := &stubReportRepository{
		sales: []*domain.Sale{
			{ID: 1, ProductName: "Pen", Quantity: 2, Price: decimal.RequireFromString("1.5"), Date: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
			{ID: 2, ProductName: "Ink", Quantity: 1, Price: decimal.RequireFromString("4"), Date: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		},
		summary: domain.SalesSummary{SalesCount: 2, TotalQuantity: 3, TotalRevenue: decimal.RequireFromString("7")},
	}
	service, _ := newReportFixture(t, repo)

	var buf bytes.Buffer
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, service.ExportRange(context.Background(), day, day.AddDate(0, 0, 1), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Product", "Quantity", "Unit Price", "Total", "Date"}, rows[0])
	assert.Equal(t, "Pen", rows[1][1])
	assert.Equal(t, "3.00", rows[1][4])
	assert.Equal(t, "2024-03-01 10:00", rows[1][5], "dates are shown in the report zone")
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "7.00", rows[3][4])
}

func TestDashboard_GathersEverything(t *testing.T) {
	repo := &stubReportRepository{
		counts:   domain.Counts{Products: 3, Categories: 2, Users: 4, Sales: 9},
		summary:  domain.SalesSummary{SalesCount: 2, TotalRevenue: decimal.RequireFromString("12.5")},
		lowStock: []*domain.Product{{ID: 1, Quantity: 1}},
		lowCount: 1,
		quiet:    2,
	}
	service, sales := newReportFixture(t, repo)
	service.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	product := &domain.Product{Name: "Pen", Quantity: 100}
	require.NoError(t, sales.products.Create(context.Background(), product))
	for i := 0; i < 7; i++ {
		require.NoError(t, sales.Create(context.Background(), &domain.Sale{ProductID: product.ID, Quantity: 1}))
	}

	dashboard, err := service.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, repo.counts, dashboard.Counts)
	assert.Equal(t, int64(2), dashboard.DailySales)
	assert.Equal(t, "12.5", dashboard.DailyRevenue.String())
	assert.Len(t, dashboard.LowStock, 1)
	assert.Equal(t, 10, repo.threshold)
	assert.Len(t, dashboard.RecentSales, 5)

	require.Len(t, dashboard.Alerts, 2)
	assert.Equal(t, "warning", dashboard.Alerts[0].Type)
	assert.Equal(t, "1 products are running low on stock", dashboard.Alerts[0].Message)
	assert.Equal(t, "/products", dashboard.Alerts[0].Link)
	assert.Equal(t, "2 products have no sales in the last 30 days", dashboard.Alerts[1].Message)
}

func TestDashboard_PropagatesErrors(t *testing.T) {
	repo := &stubReportRepository{fail: errors.New("database down")}
	service, _ := newReportFixture(t, repo)

	_, err := service.Dashboard(context.Background())
	assert.EqualError(t, err, "database down")
}

func TestBuildAlerts(t *testing.T) {
	assert.Empty(t, buildAlerts(0, 0, 0))
	assert.NotNil(t, buildAlerts(0, 0, 0))

	alerts := buildAlerts(0, 0, 3)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Inactive Users", alerts[0].Title)
	assert.Equal(t, "3 users haven't logged in recently", alerts[0].Message)
	assert.Equal(t, "/users", alerts[0].Link)
}

func TestAnalytics_TodayMonthAndTopProducts(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	monthStart := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)

	repo := &stubReportRepository{
		summaries: map[time.Time]domain.SalesSummary{
			today:      {SalesCount: 1, TotalQuantity: 2, TotalRevenue: decimal.RequireFromString("3")},
			monthStart: {SalesCount: 9, TotalQuantity: 20, TotalRevenue: decimal.RequireFromString("80")},
		},
		top: []domain.ProductSales{{ProductID: 7, ProductName: "Pen", TotalSold: 12}},
	}
	service, _ := newReportFixture(t, repo)
	service.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	analytics, err := service.Analytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), analytics.Today.SalesCount)
	assert.Equal(t, int64(9), analytics.ThisMonth.SalesCount)
	assert.Equal(t, repo.top, analytics.TopProducts)
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, loc), repo.topSince)
	assert.Equal(t, 5, repo.topLimit)

	repo.fail = errors.New("database down")
	_, err = service.Analytics(context.Background())
	assert.EqualError(t, err, "database down")
}

func TestQuickStats_ComparesWithLastMonth(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	february := time.Date(2024, 2, 1, 0, 0, 0, 0, loc)

	repo := &stubReportRepository{
		summaries: map[time.Time]domain.SalesSummary{
			today:    {SalesCount: 2, TotalRevenue: decimal.RequireFromString("10")},
			march:    {SalesCount: 15, TotalRevenue: decimal.RequireFromString("150")},
			february: {SalesCount: 12, TotalRevenue: decimal.RequireFromString("200")},
		},
	}
	service, _ := newReportFixture(t, repo)
	service.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	stats, err := service.QuickStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Today.Sales)
	assert.Equal(t, "10", stats.Today.Revenue.String())
	assert.Equal(t, int64(15), stats.Month.Sales)
	assert.Equal(t, 25.0, stats.Month.SalesChange)
	assert.Equal(t, -25.0, stats.Month.RevenueChange)
}

func TestQuickStats_EmptyLastMonthReportsNoChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	repo := &stubReportRepository{
		summaries: map[time.Time]domain.SalesSummary{
			time.Date(2024, 1, 1, 0, 0, 0, 0, loc): {SalesCount: 4, TotalRevenue: decimal.RequireFromString("40")},
			time.Date(2023, 12, 1, 0, 0, 0, 0, loc): {TotalRevenue: decimal.Zero},
		},
	}
	service, _ := newReportFixture(t, repo)
	service.now = func() time.Time { return time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC) }

	stats, err := service.QuickStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Month.Sales)
	assert.Zero(t, stats.Month.SalesChange)
	assert.Zero(t, stats.Month.RevenueChange)
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 33.33, percentChange(decimal.NewFromInt(4), decimal.NewFromInt(3)))
	assert.Equal(t, -100.0, percentChange(decimal.Zero, decimal.NewFromInt(3)))
	assert.Zero(t, percentChange(decimal.NewFromInt(4), decimal.Zero))
	assert.Zero(t, percentChange(decimal.NewFromInt(4), decimal.NewFromInt(-1)))
}
