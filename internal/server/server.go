package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/metrics"
	custommiddleware "stockroom/internal/middleware"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/storage"
	"stockroom/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  redis.UniversalClient
}

// NewServer wires repositories, services and handlers onto one chi router.
// redisClient may be nil, in which case login attempts are tracked in
// process memory and the login route is not rate limited per IP.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db database.Service,
	redisClient redis.UniversalClient,
	registry *prometheus.Registry,
) (*Server, error) {
	handler, err := NewHandler(cfg, logger, db, redisClient, registry)
	if err != nil {
		return nil, err
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      handler,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}, nil
}

// NewHandler builds the router served by NewServer
func NewHandler(
	cfg *config.Config,
	logger *zap.Logger,
	db database.Service,
	redisClient redis.UniversalClient,
	registry *prometheus.Registry,
) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}
	files, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}
	var reg prometheus.Registerer
	if registry != nil {
		reg = registry
	}
	m := metrics.New(reg)

	var attempts auth.AttemptStore = auth.NewMemoryAttemptStore()
	if redisClient != nil {
		attempts = auth.NewRedisAttemptStore(redisClient, cfg.LockoutWindow())
	}
	guard := auth.NewGuard(attempts, cfg.Login.MaxFailures, cfg.LockoutWindow())

	// Initialize repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	groupRepo := repository.NewGroupRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	mediaRepo := repository.NewMediaRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	saleRepo := repository.NewSaleRepository(sqlDB)
	reportRepo := repository.NewReportRepository(sqlDB)
	txRunner := repository.NewTxRunner(sqlDB)

	// Initialize services
	hasher := auth.NewHasher(auth.DefaultCost)
	uploader := service.NewImageUploader(files, cfg.Upload.MaxBytes)
	authService := service.NewAuthService(userRepo, hasher, tokens, guard, m, logger)
	userService := service.NewUserService(userRepo, groupRepo, hasher, uploader, logger)
	groupService := service.NewGroupService(groupRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	mediaService := service.NewMediaService(mediaRepo, uploader, logger)
	productService := service.NewProductService(productRepo, categoryRepo, mediaRepo)
	saleService := service.NewSaleService(saleRepo, txRunner, m, logger)
	reportService := service.NewReportService(reportRepo, saleRepo, cfg.Location(), cfg.Report.LowStockThreshold)

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware(m))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})
	if registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}
	router.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirectoryListing(http.FileServer(http.Dir(files.Dir())))))

	var loginLimit func(http.Handler) http.Handler
	if redisClient != nil {
		loginLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "ratelimit:login",
		}, logger)
	}

	authMiddleware := custommiddleware.AuthMiddleware(tokens, logger)
	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, authMiddleware, loginLimit)

	router.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		transport.NewProfileHandler(userService, cfg.Upload.MaxBytes, logger).RegisterRoutes(r)
		transport.NewUserHandler(userService, logger).RegisterRoutes(r)
		transport.NewGroupHandler(groupService, logger).RegisterRoutes(r)
		transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(r)
		transport.NewMediaHandler(mediaService, cfg.Upload.MaxBytes, logger).RegisterRoutes(r)
		transport.NewProductHandler(productService, logger).RegisterRoutes(r)
		transport.NewSaleHandler(saleService, logger).RegisterRoutes(r)
		transport.NewReportHandler(reportService, cfg.Location(), logger).RegisterRoutes(r)
	})

	return router, nil
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
