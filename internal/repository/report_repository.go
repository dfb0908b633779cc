package repository

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/domain"
)

// ReportRepository runs the read-only aggregate queries behind reports and
// the dashboard. Ranges are half open: from <= date < to. Grouping by day or
// month happens in the named time zone.
type ReportRepository interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]*domain.Sale, error)
	Summary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error)
	DailyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.DailySales, error)
	MonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.MonthlySales, error)
	ProductMonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.ProductMonthlySales, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error)
	Counts(ctx context.Context) (domain.Counts, error)
	LowStock(ctx context.Context, threshold, limit int) ([]*domain.Product, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	CountProductsWithoutSalesSince(ctx context.Context, since time.Time) (int64, error)
	CountUsersNotSeenSince(ctx context.Context, since time.Time) (int64, error)
}

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]*domain.Sale, error) {
	return querySales(ctx, r.db, saleSelect+`
		WHERE s.date >= $1 AND s.date < $2
		ORDER BY s.date DESC, s.id DESC
	`, from, to)
}

func (r *reportRepository) Summary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(qty), 0), COALESCE(SUM(qty * price), 0)
		FROM sales
		WHERE date >= $1 AND date < $2
	`, from, to).Scan(&summary.SalesCount, &summary.TotalQuantity, &summary.TotalRevenue)
	if err != nil {
		return domain.SalesSummary{}, fmt.Errorf("failed to summarize sales: %w", err)
	}
	return summary, nil
}

func (r *reportRepository) DailyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.DailySales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char((date AT TIME ZONE $3::text)::date, 'YYYY-MM-DD') AS day,
		       COUNT(*), SUM(qty), SUM(qty * price)
		FROM sales
		WHERE date >= $1 AND date < $2
		GROUP BY day
		ORDER BY day ASC
	`, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily sales: %w", err)
	}
	defer rows.Close()

	days := []domain.DailySales{}
	for rows.Next() {
		var day domain.DailySales
		if err := rows.Scan(&day.Day, &day.SalesCount, &day.TotalQuantity, &day.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		days = append(days, day)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily sales: %w", err)
	}
	return days, nil
}

func (r *reportRepository) MonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.MonthlySales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT EXTRACT(MONTH FROM date AT TIME ZONE $3::text)::int AS month,
		       COUNT(*), SUM(qty), SUM(qty * price)
		FROM sales
		WHERE date >= $1 AND date < $2
		GROUP BY month
		ORDER BY month ASC
	`, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly sales: %w", err)
	}
	defer rows.Close()

	months := []domain.MonthlySales{}
	for rows.Next() {
		var month domain.MonthlySales
		if err := rows.Scan(&month.Month, &month.SalesCount, &month.TotalQuantity, &month.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		months = append(months, month)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sales: %w", err)
	}
	return months, nil
}

func (r *reportRepository) ProductMonthlyTotals(ctx context.Context, from, to time.Time, tz string) ([]domain.ProductMonthlySales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, EXTRACT(MONTH FROM s.date AT TIME ZONE $3::text)::int AS month,
		       SUM(s.qty), SUM(s.qty * s.price) AS revenue
		FROM sales s
		JOIN products p ON p.id = s.product_id
		WHERE s.date >= $1 AND s.date < $2
		GROUP BY p.id, p.name, month
		ORDER BY month ASC, revenue DESC, p.id ASC
	`, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product sales: %w", err)
	}
	defer rows.Close()

	items := []domain.ProductMonthlySales{}
	for rows.Next() {
		var item domain.ProductMonthlySales
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Month, &item.TotalQuantity, &item.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product sales: %w", err)
	}
	return items, nil
}

// TopProducts ranks products by units sold since the given instant.
func (r *reportRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, SUM(s.qty) AS total_sold, SUM(s.qty * s.price)
		FROM sales s
		JOIN products p ON p.id = s.product_id
		WHERE s.date >= $1
		GROUP BY p.id, p.name
		ORDER BY total_sold DESC, p.id ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	defer rows.Close()

	items := []domain.ProductSales{}
	for rows.Next() {
		var item domain.ProductSales
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.TotalSold, &item.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top products: %w", err)
	}
	return items, nil
}

func (r *reportRepository) Counts(ctx context.Context) (domain.Counts, error) {
	var counts domain.Counts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM sales)
	`).Scan(&counts.Products, &counts.Categories, &counts.Users, &counts.Sales)
	if err != nil {
		return domain.Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return counts, nil
}

// LowStock returns products at or below threshold units, scarcest first.
func (r *reportRepository) LowStock(ctx context.Context, threshold, limit int) ([]*domain.Product, error) {
	return queryProducts(ctx, r.db, productSelect+`
		WHERE p.quantity <= $1
		ORDER BY p.quantity ASC, p.name ASC
		LIMIT $2
	`, threshold, limit)
}

func (r *reportRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE quantity <= $1`, threshold).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return count, nil
}

func (r *reportRepository) CountProductsWithoutSalesSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM products p
		WHERE NOT EXISTS (
			SELECT 1 FROM sales s WHERE s.product_id = p.id AND s.date >= $1
		)
	`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products without sales: %w", err)
	}
	return count, nil
}

// CountUsersNotSeenSince counts active users whose last login predates since.
func (r *reportRepository) CountUsersNotSeenSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE status AND last_login < $1
	`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inactive users: %w", err)
	}
	return count, nil
}
