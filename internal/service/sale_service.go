package service

import (
	"context"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/metrics"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleInput carries the fields of a sale line.
type SaleInput struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// SaleService records sales and keeps product stock in step with them.
// Every mutation runs in one transaction: the stock movement and the sale
// row are written together or not at all.
type SaleService interface {
	List(ctx context.Context, limit int) ([]*domain.Sale, error)
	Get(ctx context.Context, id int64) (*domain.Sale, error)
	Create(ctx context.Context, actorID int64, input SaleInput) (*domain.Sale, error)
	Update(ctx context.Context, id int64, input SaleInput) (*domain.Sale, error)
	Delete(ctx context.Context, id int64) error
}

type saleService struct {
	sales   repository.SaleRepository
	tx      repository.TxRunner
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewSaleService(
	sales repository.SaleRepository,
	tx repository.TxRunner,
	m *metrics.Metrics,
	logger *zap.Logger,
) SaleService {
	return &saleService{
		sales:   sales,
		tx:      tx,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *saleService) List(ctx context.Context, limit int) ([]*domain.Sale, error) {
	return s.sales.List(ctx, limit)
}

func (s *saleService) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.sales.FindByID(ctx, id)
}

// Create debits the stock and records the sale
func (s *saleService) Create(ctx context.Context, actorID int64, input SaleInput) (*domain.Sale, error) {
	if err := validateSaleInput(input); err != nil {
		return nil, err
	}

	var created *domain.Sale
	err := s.tx.RunInTx(ctx, func(products repository.ProductRepository, sales repository.SaleRepository) error {
		if err := products.DebitStock(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}

		sale := &domain.Sale{
			ProductID: input.ProductID,
			Quantity:  input.Quantity,
			Price:     input.Price,
			Date:      s.now(),
			CreatedBy: &actorID,
		}
		if err := sales.Create(ctx, sale); err != nil {
			return err
		}

		var err error
		created, err = sales.FindByID(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SaleCreated(created.Quantity)
	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", created.ID),
		zap.Int64("product_id", created.ProductID),
		zap.Int("qty", created.Quantity),
	)
	return created, nil
}

// Update moves stock only when the product or the quantity changes: the old
// quantity goes back to the old product, then the new quantity is debited
// from the new product. A failed debit rolls back the credit as well.
func (s *saleService) Update(ctx context.Context, id int64, input SaleInput) (*domain.Sale, error) {
	if err := validateSaleInput(input); err != nil {
		return nil, err
	}

	var updated *domain.Sale
	err := s.tx.RunInTx(ctx, func(products repository.ProductRepository, sales repository.SaleRepository) error {
		existing, err := sales.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if existing.ProductID != input.ProductID || existing.Quantity != input.Quantity {
			if err := products.CreditStock(ctx, existing.ProductID, existing.Quantity); err != nil {
				return err
			}
			if err := products.DebitStock(ctx, input.ProductID, input.Quantity); err != nil {
				return err
			}
		}

		existing.ProductID = input.ProductID
		existing.Quantity = input.Quantity
		existing.Price = input.Price
		if err := sales.Update(ctx, existing); err != nil {
			return err
		}

		updated, err = sales.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SaleUpdated()
	return updated, nil
}

// Delete returns the sold quantity to stock and removes the sale
func (s *saleService) Delete(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(products repository.ProductRepository, sales repository.SaleRepository) error {
		existing, err := sales.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := products.CreditStock(ctx, existing.ProductID, existing.Quantity); err != nil {
			return err
		}
		return sales.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.metrics.SaleDeleted()
	return nil
}

func validateSaleInput(input SaleInput) error {
	if input.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if input.Price.IsNegative() {
		return domain.ErrNegativeAmount
	}
	return nil
}
