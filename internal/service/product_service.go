package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"stockroom/internal/domain"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	minSearchTermLength = 2
	searchResultLimit   = 10
)

// ProductInput carries the editable fields of a product. A nil or zero
// MediaID means no image.
type ProductInput struct {
	Name       string
	Quantity   int
	BuyPrice   decimal.Decimal
	SalePrice  decimal.Decimal
	CategoryID int64
	MediaID    *int64
}

type ProductService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, term string) ([]*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	media      repository.MediaRepository
}

func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	media repository.MediaRepository,
) ProductService {
	return &productService{products: products, categories: categories, media: media}
}

func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Search matches in-stock products by name. Terms shorter than two
// characters return nothing.
func (s *productService) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < minSearchTermLength {
		return []*domain.Product{}, nil
	}
	return s.products.Search(ctx, term, searchResultLimit)
}

func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, product.ID)
}

// Update replaces every field, quantity included. Setting the quantity is how
// stock is received; sales move it only through the ledger.
func (s *productService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	product.ID = id
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

// Delete removes the product together with its sales
func (s *productService) Delete(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

func (s *productService) build(ctx context.Context, input ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrBlankName
	}
	if input.Quantity < 0 || input.BuyPrice.IsNegative() || input.SalePrice.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}

	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrUnknownCategory
		}
		return nil, err
	}

	mediaID := input.MediaID
	if mediaID != nil && *mediaID == 0 {
		mediaID = nil
	}
	if mediaID != nil {
		if _, err := s.media.FindByID(ctx, *mediaID); err != nil {
			if errors.Is(err, domain.ErrMediaNotFound) {
				return nil, domain.ErrUnknownMedia
			}
			return nil, err
		}
	}

	return &domain.Product{
		Name:       name,
		Quantity:   input.Quantity,
		BuyPrice:   input.BuyPrice,
		SalePrice:  input.SalePrice,
		CategoryID: input.CategoryID,
		MediaID:    mediaID,
	}, nil
}
