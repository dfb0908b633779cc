package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stockroom/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	requireDB(t)
	productRepo := NewProductRepository(testDB)
	category := seedCategory(t, "Finished Goods")

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, quantity int, buyCents int64, saleCents int64) bool {
			ctx := context.Background()

			product := &domain.Product{
				Name:       name,
				Quantity:   quantity,
				BuyPrice:   decimal.New(buyCents, -2),
				SalePrice:  decimal.New(saleCents, -2),
				CategoryID: category.ID,
			}
			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			return retrieved.Name == name &&
				retrieved.Quantity == quantity &&
				retrieved.BuyPrice.Equal(product.BuyPrice) &&
				retrieved.SalePrice.Equal(product.SalePrice) &&
				retrieved.CategoryID == category.ID &&
				retrieved.CategoryName == "Finished Goods" &&
				retrieved.MediaID == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 255 }),
		gen.IntRange(0, 100000),
		gen.Int64Range(0, 10000000),
		gen.Int64Range(0, 10000000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepository_ReferenceErrors(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)

	err := repo.Create(ctx, &domain.Product{Name: "orphan", CategoryID: 9999})
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	product := seedProduct(t, 3)
	missing := int64(9999)
	product.MediaID = &missing
	assert.ErrorIs(t, repo.Update(ctx, product), domain.ErrUnknownMedia)

	product.MediaID = nil
	product.Quantity = -1
	assert.ErrorIs(t, repo.Update(ctx, product), domain.ErrNegativeAmount)
}

func TestProductRepository_Search(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	category := seedCategory(t, "Stationery Items")

	for _, p := range []struct {
		name string
		qty  int
	}{
		{"Blue Pen", 10},
		{"Red Pen", 0},
		{"Pencil", 4},
		{"100% Paper", 2},
	} {
		require.NoError(t, repo.Create(ctx, &domain.Product{Name: p.name, Quantity: p.qty, CategoryID: category.ID}))
	}

	found, err := repo.Search(ctx, "pen", 10)
	require.NoError(t, err)
	names := []string{}
	for _, p := range found {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Blue Pen", "Pencil"}, names, "out of stock products are excluded")

	found, err = repo.Search(ctx, "%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Paper", found[0].Name)

	found, err = repo.Search(ctx, "p", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProductRepository_DebitAndCredit(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	product := seedProduct(t, 10)

	require.NoError(t, repo.DebitStock(ctx, product.ID, 4))
	assert.ErrorIs(t, repo.DebitStock(ctx, product.ID, 7), domain.ErrInsufficientStock)
	require.NoError(t, repo.CreditStock(ctx, product.ID, 1))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, found.Quantity)

	assert.ErrorIs(t, repo.DebitStock(ctx, 9999, 1), domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.CreditStock(ctx, 9999, 1), domain.ErrProductNotFound)
}

func TestProductRepository_ConcurrentDebitsNeverOversell(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	product := seedProduct(t, 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DebitStock(ctx, product.ID, 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, found.Quantity)
}
