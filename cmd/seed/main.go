package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/domain"
	"stockroom/internal/logger"
	"stockroom/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	adminUsername   = "admin"
	defaultPassword = "admin"
)

type demoProduct struct {
	name      string
	quantity  int
	buyPrice  string
	salePrice string
	category  string
}

var demoProducts = []demoProduct{
	{"Demo Product 1", 50, "10.00", "15.00", "Demo Category"},
	{"Sample Item", 25, "5.50", "8.99", "Raw Materials"},
	{"Test Product", 100, "2.25", "3.75", "Finished Goods"},
}

func main() {
	demo := flag.Bool("demo", false, "also insert demo products when the catalog is empty")
	flag.Parse()

	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(context.Background(), cfg, log, *demo); err != nil {
		log.Error("Seeding failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Seeding complete")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, demo bool) error {
	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbService.Close()

	db := dbService.DB()
	if err := database.RunMigrations(db, log); err != nil {
		return err
	}

	if err := seedAdmin(ctx, repository.NewUserRepository(db), log); err != nil {
		return err
	}
	if demo {
		return seedDemoProducts(ctx, repository.NewProductRepository(db), repository.NewCategoryRepository(db), log)
	}
	return nil
}

func seedAdmin(ctx context.Context, users repository.UserRepository, log *zap.Logger) error {
	_, err := users.FindByUsername(ctx, adminUsername)
	if err == nil {
		log.Info("Administrator already exists, leaving it untouched", zap.String("username", adminUsername))
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = defaultPassword
		log.Warn("SEED_ADMIN_PASSWORD is not set; the administrator uses the well-known default password. Change it after the first login.",
			zap.String("username", adminUsername))
	}

	hash, err := auth.NewHasher(auth.DefaultCost).Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash administrator password: %w", err)
	}

	admin := &domain.User{
		Name:         "Administrator",
		Username:     adminUsername,
		PasswordHash: hash,
		Level:        domain.LevelAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	log.Info("Administrator created", zap.Int64("user_id", admin.ID))
	return nil
}

func seedDemoProducts(ctx context.Context, products repository.ProductRepository, categories repository.CategoryRepository, log *zap.Logger) error {
	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("Catalog is not empty, skipping demo products", zap.Int("products", len(existing)))
		return nil
	}

	all, err := categories.List(ctx)
	if err != nil {
		return err
	}
	categoryIDs := make(map[string]int64, len(all))
	for _, c := range all {
		categoryIDs[c.Name] = c.ID
	}

	for _, p := range demoProducts {
		categoryID, ok := categoryIDs[p.category]
		if !ok {
			log.Warn("Demo category missing, skipping product", zap.String("category", p.category), zap.String("product", p.name))
			continue
		}

		product := &domain.Product{
			Name:       p.name,
			Quantity:   p.quantity,
			BuyPrice:   decimal.RequireFromString(p.buyPrice),
			SalePrice:  decimal.RequireFromString(p.salePrice),
			CategoryID: categoryID,
		}
		if err := products.Create(ctx, product); err != nil {
			return fmt.Errorf("failed to create demo product %q: %w", p.name, err)
		}
		log.Info("Demo product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	}
	return nil
}
