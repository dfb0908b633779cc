package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout = "2006-01-02"

	dashboardLowStockLimit = 5
	dashboardRecentSales   = 5
	alertLowStockThreshold = 5
	alertQuietDays         = 30
	topProductsDays        = 30
	topProductsLimit       = 5
	exportSheet            = "Sales"
)

// ReportService computes sales reports in a fixed time zone.
type ReportService interface {
	Daily(ctx context.Context, day time.Time) (*domain.SalesReport, error)
	DailySummary(ctx context.Context, year int, month time.Month) ([]domain.DailySales, error)
	Monthly(ctx context.Context, year int) (*domain.MonthlyReport, error)
	// Range covers whole days from start through end, both inclusive.
	Range(ctx context.Context, start, end time.Time) (*domain.SalesReport, error)
	ExportRange(ctx context.Context, start, end time.Time, w io.Writer) error
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
	// QuickStats compares this month with last month. A change against an
	// empty month is reported as 0.
	QuickStats(ctx context.Context) (*domain.QuickStats, error)
}

type reportService struct {
	reports           repository.ReportRepository
	sales             repository.SaleRepository
	loc               *time.Location
	lowStockThreshold int
	now               func() time.Time
}

func NewReportService(
	reports repository.ReportRepository,
	sales repository.SaleRepository,
	loc *time.Location,
	lowStockThreshold int,
) ReportService {
	return &reportService{
		reports:           reports,
		sales:             sales,
		loc:               loc,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

func (s *reportService) Daily(ctx context.Context, day time.Time) (*domain.SalesReport, error) {
	return s.Range(ctx, day, day)
}

func (s *reportService) DailySummary(ctx context.Context, year int, month time.Month) ([]domain.DailySales, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return s.reports.DailyTotals(ctx, from, from.AddDate(0, 1, 0), s.loc.String())
}

func (s *reportService) Monthly(ctx context.Context, year int) (*domain.MonthlyReport, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(1, 0, 0)

	months, err := s.reports.MonthlyTotals(ctx, from, to, s.loc.String())
	if err != nil {
		return nil, err
	}
	products, err := s.reports.ProductMonthlyTotals(ctx, from, to, s.loc.String())
	if err != nil {
		return nil, err
	}

	return &domain.MonthlyReport{Year: year, Months: months, Products: products}, nil
}

func (s *reportService) Range(ctx context.Context, start, end time.Time) (*domain.SalesReport, error) {
	from, to, err := s.dayBounds(start, end)
	if err != nil {
		return nil, err
	}

	sales, err := s.reports.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary, err := s.reports.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &domain.SalesReport{
		From:    from.Format(dateLayout),
		To:      to.AddDate(0, 0, -1).Format(dateLayout),
		Sales:   sales,
		Summary: summary,
	}, nil
}

// ExportRange writes the range report as an xlsx workbook with one row per
// sale and a closing totals row.
func (s *reportService) ExportRange(ctx context.Context, start, end time.Time, w io.Writer) error {
	report, err := s.Range(ctx, start, end)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"ID", "Product", "Quantity", "Unit Price", "Total", "Date"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, sale := range report.Sales {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			sale.ID,
			sale.ProductName,
			sale.Quantity,
			sale.Price.StringFixed(2),
			sale.Total().StringFixed(2),
			sale.Date.In(s.loc).Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write sale row: %w", err)
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(report.Sales)+2)
	if err != nil {
		return err
	}
	totals := []any{"Total", "", report.Summary.TotalQuantity, "", report.Summary.TotalRevenue.StringFixed(2), ""}
	if err := f.SetSheetRow(exportSheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write totals row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Dashboard gathers the independent dashboard reads concurrently.
func (s *reportService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	quietSince := now.AddDate(0, 0, -alertQuietDays)

	var (
		dashboard    domain.Dashboard
		todaySummary domain.SalesSummary
		monthSummary domain.SalesSummary
		lowCount     int64
		quietCount   int64
		dormantCount int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dashboard.Counts, err = s.reports.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		todaySummary, err = s.reports.Summary(gctx, today, today.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() (err error) {
		monthSummary, err = s.reports.Summary(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() (err error) {
		dashboard.LowStock, err = s.reports.LowStock(gctx, s.lowStockThreshold, dashboardLowStockLimit)
		return err
	})
	g.Go(func() (err error) {
		dashboard.RecentSales, err = s.sales.List(gctx, dashboardRecentSales)
		return err
	})
	g.Go(func() (err error) {
		lowCount, err = s.reports.CountLowStock(gctx, alertLowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		quietCount, err = s.reports.CountProductsWithoutSalesSince(gctx, quietSince)
		return err
	})
	g.Go(func() (err error) {
		dormantCount, err = s.reports.CountUsersNotSeenSince(gctx, quietSince)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard.DailySales = todaySummary.SalesCount
	dashboard.DailyRevenue = todaySummary.TotalRevenue
	dashboard.MonthlyRevenue = monthSummary.TotalRevenue
	dashboard.Alerts = buildAlerts(lowCount, quietCount, dormantCount)
	return &dashboard, nil
}

func (s *reportService) Analytics(ctx context.Context) (*domain.Analytics, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	var analytics domain.Analytics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		analytics.Today, err = s.reports.Summary(gctx, today, today.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() (err error) {
		analytics.ThisMonth, err = s.reports.Summary(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() (err error) {
		analytics.TopProducts, err = s.reports.TopProducts(gctx, today.AddDate(0, 0, -topProductsDays), topProductsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (s *reportService) QuickStats(ctx context.Context) (*domain.QuickStats, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var todaySummary, monthSummary, lastMonthSummary domain.SalesSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todaySummary, err = s.reports.Summary(gctx, today, today.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() (err error) {
		monthSummary, err = s.reports.Summary(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() (err error) {
		lastMonthSummary, err = s.reports.Summary(gctx, lastMonthStart, monthStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.QuickStats{
		Today: domain.PeriodStats{Sales: todaySummary.SalesCount, Revenue: todaySummary.TotalRevenue},
		Month: domain.MonthStats{
			PeriodStats: domain.PeriodStats{Sales: monthSummary.SalesCount, Revenue: monthSummary.TotalRevenue},
			SalesChange: percentChange(
				decimal.NewFromInt(monthSummary.SalesCount),
				decimal.NewFromInt(lastMonthSummary.SalesCount),
			),
			RevenueChange: percentChange(monthSummary.TotalRevenue, lastMonthSummary.TotalRevenue),
		},
	}, nil
}

// percentChange is the change from previous to current in percent, rounded
// to two places. It is 0 when previous is not positive.
func percentChange(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func buildAlerts(lowStock, withoutSales, dormantUsers int64) []domain.Alert {
	alerts := []domain.Alert{}
	if lowStock > 0 {
		alerts = append(alerts, domain.Alert{
			Type:    "warning",
			Title:   "Low Stock Alert",
			Message: fmt.Sprintf("%d products are running low on stock", lowStock),
			Link:    "/products",
		})
	}
	if withoutSales > 0 {
		alerts = append(alerts, domain.Alert{
			Type:    "info",
			Title:   "No Recent Sales",
			Message: fmt.Sprintf("%d products have no sales in the last %d days", withoutSales, alertQuietDays),
			Link:    "/sales/report",
		})
	}
	if dormantUsers > 0 {
		alerts = append(alerts, domain.Alert{
			Type:    "info",
			Title:   "Inactive Users",
			Message: fmt.Sprintf("%d users haven't logged in recently", dormantUsers),
			Link:    "/users",
		})
	}
	return alerts
}

// dayBounds turns inclusive calendar days into a half-open instant range in
// the report time zone.
func (s *reportService) dayBounds(start, end time.Time) (time.Time, time.Time, error) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc)
	if from.After(last) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	return from, last.AddDate(0, 0, 1), nil
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, loc)
}
