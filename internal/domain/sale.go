package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records units of one product sold at a unit price.
type Sale struct {
	ID        int64           `json:"id" db:"id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"qty" db:"qty"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Date      time.Time       `json:"date" db:"date"`
	CreatedBy *int64          `json:"created_by,omitempty" db:"created_by"`

	ProductName string `json:"product_name,omitempty" db:"-"`
}

// Total is the line amount: unit price times quantity.
func (s *Sale) Total() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// SalesSummary aggregates a set of sales.
type SalesSummary struct {
	SalesCount    int64           `json:"sales_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// DailySales aggregates the sales of one calendar day.
type DailySales struct {
	Day string `json:"date"`
	SalesSummary
}

// MonthlySales aggregates the sales of one month of a year.
type MonthlySales struct {
	Month int `json:"month"`
	SalesSummary
}

// ProductMonthlySales aggregates one product's sales in one month.
type ProductMonthlySales struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Month         int             `json:"month"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// SalesReport is a list of sales with its summary.
type SalesReport struct {
	From    string       `json:"start_date"`
	To      string       `json:"end_date"`
	Sales   []*Sale      `json:"sales"`
	Summary SalesSummary `json:"summary"`
}

// MonthlyReport breaks one year down by month and by product.
type MonthlyReport struct {
	Year     int                   `json:"year"`
	Months   []MonthlySales        `json:"monthly_sales"`
	Products []ProductMonthlySales `json:"product_sales"`
}

// Counts holds row totals shown on the dashboard.
type Counts struct {
	Products   int64 `json:"totalProducts"`
	Categories int64 `json:"totalCategories"`
	Users      int64 `json:"totalUsers"`
	Sales      int64 `json:"totalSales"`
}

// Alert is a dashboard notice.
type Alert struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"actionUrl"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	Counts         Counts          `json:"statistics"`
	DailySales     int64           `json:"dailySales"`
	DailyRevenue   decimal.Decimal `json:"dailyRevenue"`
	MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
	LowStock       []*Product      `json:"lowStockProducts"`
	RecentSales    []*Sale         `json:"recentSales"`
	Alerts         []Alert         `json:"alerts"`
}

// ProductSales is one product's sales total over a period.
type ProductSales struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"name"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// Analytics compares today with the month so far and ranks recent best
// sellers.
type Analytics struct {
	Today       SalesSummary   `json:"today"`
	ThisMonth   SalesSummary   `json:"thisMonth"`
	TopProducts []ProductSales `json:"topProducts"`
}

// PeriodStats is a sales count and revenue for one period.
type PeriodStats struct {
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// MonthStats adds the change against the previous month, in percent.
type MonthStats struct {
	PeriodStats
	SalesChange   float64 `json:"salesChange"`
	RevenueChange float64 `json:"revenueChange"`
}

// QuickStats feeds the dashboard widgets.
type QuickStats struct {
	Today PeriodStats `json:"today"`
	Month MonthStats  `json:"month"`
}
