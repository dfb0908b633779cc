package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Quantity is the stock on hand and never goes
// negative; it equals the initial stock minus the quantities of all live sales.
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	BuyPrice   decimal.Decimal `json:"buy_price" db:"buy_price"`
	SalePrice  decimal.Decimal `json:"sale_price" db:"sale_price"`
	CategoryID int64           `json:"category_id" db:"category_id"`
	MediaID    *int64          `json:"media_id" db:"media_id"`
	CreatedAt  time.Time       `json:"date" db:"created_at"`

	// Joined columns, filled by list and lookup queries.
	CategoryName string `json:"category_name,omitempty" db:"-"`
	Image        string `json:"image,omitempty" db:"-"`
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && p.Quantity >= qty
}

// Category groups products. Names are unique.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Media is an uploaded image file.
type Media struct {
	ID         int64     `json:"id" db:"id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FileType   string    `json:"file_type" db:"file_type"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	UploadedAt time.Time `json:"upload_date" db:"upload_date"`
}
