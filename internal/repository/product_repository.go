package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockroom/internal/domain"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Search(ctx context.Context, term string, limit int) ([]*domain.Product, error)
	// DebitStock removes qty units in one conditional update. It returns
	// ErrInsufficientStock when fewer than qty units are on hand.
	DebitStock(ctx context.Context, id int64, qty int) error
	CreditStock(ctx context.Context, id int64, qty int) error
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.quantity, p.buy_price, p.sale_price, p.category_id, p.media_id, p.created_at,
	       COALESCE(c.name, ''), COALESCE(m.file_name, '')
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN media m ON m.id = p.media_id
`

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var mediaID sql.NullInt64
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Quantity,
		&product.BuyPrice,
		&product.SalePrice,
		&product.CategoryID,
		&mediaID,
		&product.CreatedAt,
		&product.CategoryName,
		&product.Image,
	)
	if err != nil {
		return nil, err
	}
	product.MediaID = nullableInt64(mediaID)
	return product, nil
}

func translateProductError(err error) error {
	code, constraint := constraintViolation(err)
	switch {
	case code == foreignKeyViolation && constraint == "products_category_id_fkey":
		return domain.ErrUnknownCategory
	case code == foreignKeyViolation && constraint == "products_media_id_fkey":
		return domain.ErrUnknownMedia
	case code == checkViolation:
		return domain.ErrNegativeAmount
	}
	return nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, quantity, buy_price, sale_price, category_id, media_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Quantity,
		product.BuyPrice,
		product.SalePrice,
		product.CategoryID,
		product.MediaID,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if domainErr := translateProductError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, quantity = $3, buy_price = $4, sale_price = $5, category_id = $6, media_id = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Quantity,
		product.BuyPrice,
		product.SalePrice,
		product.CategoryID,
		product.MediaID,
	)
	if err != nil {
		if domainErr := translateProductError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

// Delete removes a product and, through the foreign key, its sales
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns all products newest first
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return queryProducts(ctx, r.db, productSelect+` ORDER BY p.id DESC`)
}

// Search finds in-stock products whose name contains term, case-insensitively
func (r *productRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Product, error) {
	pattern := "%" + escapeLike(term) + "%"
	return queryProducts(ctx, r.db, productSelect+`
		WHERE p.name ILIKE $1 AND p.quantity > 0
		ORDER BY p.name ASC
		LIMIT $2
	`, pattern, limit)
}

func (r *productRepository) DebitStock(ctx context.Context, id int64, qty int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $1
	`, qty, id)
	if err != nil {
		return fmt.Errorf("failed to debit stock: %w", err)
	}

	err = expectOneRow(result, domain.ErrInsufficientStock)
	if err != domain.ErrInsufficientStock {
		return err
	}

	// nothing matched: either the product is gone or stock is short
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *productRepository) CreditStock(ctx context.Context, id int64, qty int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET quantity = quantity + $1 WHERE id = $2`, qty, id)
	if err != nil {
		return fmt.Errorf("failed to credit stock: %w", err)
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

func queryProducts(ctx context.Context, db DBTX, query string, args ...any) ([]*domain.Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
