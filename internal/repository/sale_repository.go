package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/domain"
)

// SaleRepository defines the interface for sale records. Stock movements are
// the caller's job; see TxRunner.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	Update(ctx context.Context, sale *domain.Sale) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Sale, error)
	// FindByIDForUpdate locks the sale row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Sale, error)
	List(ctx context.Context, limit int) ([]*domain.Sale, error)
}

type saleRepository struct {
	db DBTX
}

func NewSaleRepository(db DBTX) SaleRepository {
	return &saleRepository{db: db}
}

const saleSelect = `
	SELECT s.id, s.product_id, s.qty, s.price, s.date, s.created_by, COALESCE(p.name, '')
	FROM sales s
	LEFT JOIN products p ON p.id = s.product_id
`

func scanSale(row rowScanner) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var createdBy sql.NullInt64
	err := row.Scan(
		&sale.ID,
		&sale.ProductID,
		&sale.Quantity,
		&sale.Price,
		&sale.Date,
		&createdBy,
		&sale.ProductName,
	)
	if err != nil {
		return nil, err
	}
	sale.CreatedBy = nullableInt64(createdBy)
	return sale, nil
}

func translateSaleError(err error) error {
	code, constraint := constraintViolation(err)
	switch {
	case code == foreignKeyViolation && constraint == "sales_product_id_fkey":
		return domain.ErrProductNotFound
	case code == foreignKeyViolation && constraint == "sales_created_by_fkey":
		return domain.ErrUserNotFound
	case code == checkViolation:
		return domain.ErrInvalidQuantity
	}
	return nil
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (product_id, qty, price, date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		sale.ProductID,
		sale.Quantity,
		sale.Price,
		sale.Date,
		sale.CreatedBy,
	).Scan(&sale.ID)
	if err != nil {
		if domainErr := translateSaleError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

func (r *saleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	query := `
		UPDATE sales
		SET product_id = $2, qty = $3, price = $4, date = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, sale.ID, sale.ProductID, sale.Quantity, sale.Price, sale.Date)
	if err != nil {
		if domainErr := translateSaleError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to update sale: %w", err)
	}
	return expectOneRow(result, domain.ErrSaleNotFound)
}

func (r *saleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	return expectOneRow(result, domain.ErrSaleNotFound)
}

func (r *saleRepository) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := scanSale(r.db.QueryRowContext(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}
	return sale, nil
}

func (r *saleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `
		SELECT id, product_id, qty, price, date, created_by, ''
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`

	sale, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to lock sale: %w", err)
	}
	return sale, nil
}

// List returns the most recent sales first. A limit of zero or less returns all.
func (r *saleRepository) List(ctx context.Context, limit int) ([]*domain.Sale, error) {
	query := saleSelect + ` ORDER BY s.date DESC, s.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return querySales(ctx, r.db, query, args...)
}

func querySales(ctx context.Context, db DBTX, query string, args ...any) ([]*domain.Sale, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	return sales, nil
}
