package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"community-portal/internal/catalog"
	"community-portal/internal/checkout"
	"community-portal/internal/config"
	"community-portal/internal/database"
	"community-portal/internal/messaging"
	custommiddleware "community-portal/internal/middleware"
	"community-portal/internal/repository"
	"community-portal/internal/service"
	"community-portal/internal/shipping"
	"community-portal/internal/telemetry"
	"community-portal/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Dependencies are the external resources the server is built on
type Dependencies struct {
	DB             database.Service
	Redis          *redis.Client
	Publisher      messaging.Publisher
	Members        service.MemberAPI
	Shipping       shipping.Table
	Metrics        *telemetry.Metrics
	MetricsHandler http.Handler
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Catalog.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Catalog.Timezone, err)
	}

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", healthHandler(deps))
	if deps.MetricsHandler != nil {
		router.Handle("/metrics", deps.MetricsHandler)
	}

	// Repositories
	productRepo := repository.NewProductRepository(deps.DB.DB())
	orderRepo := repository.NewOrderRepository(deps.DB.DB())
	cartRepo := repository.NewCartRepository(deps.Redis, cfg.Session.CartTTL)
	sessionRepo := repository.NewSessionRepository(deps.Redis, cfg.Session.TTL)
	idempotencyRepo := repository.NewIdempotencyRepository(deps.Redis, cfg.Session.IdempotencyTTL)

	// Services
	pricer := catalog.NewPricer(cfg.Catalog.CurrencySymbol, cfg.Catalog.Locale)
	buckets := catalog.PriceBuckets{
		Low:  decimal.NewFromFloat(cfg.Catalog.PriceBuckets[0]),
		Mid:  decimal.NewFromFloat(cfg.Catalog.PriceBuckets[1]),
		High: decimal.NewFromFloat(cfg.Catalog.PriceBuckets[2]),
	}
	catalogService := service.NewCatalogService(productRepo, pricer, buckets)
	cartService := service.NewCartService(cartRepo, catalogService, pricer, deps.Metrics)
	checkoutService := service.NewCheckoutService(checkout.NewComposer(deps.Shipping), cartService, orderRepo,
		deps.Publisher, pricer, deps.Metrics, logger)
	visitorService := service.NewVisitorService(sessionRepo, deps.Members, loc, deps.Metrics, logger)
	walletService := service.NewWalletService(deps.Members, deps.Metrics)
	billerService := service.NewBillerService(deps.Members, deps.Metrics)
	recordService := service.NewRecordService(deps.Members, deps.Metrics)

	// Middleware bound to stores
	idempotency := custommiddleware.IdempotencyMiddleware(idempotencyRepo, logger)
	limitVerify := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.VerifyAttempts,
		Window:            cfg.RateLimit.VerifyWindow,
		KeyPrefix:         "rate_limit:verify",
		KeyFunc:           custommiddleware.MemberClientKey,
	}, logger)
	requireVisitor := custommiddleware.RequireVisitor(visitorService, service.ErrVisitorRequired, logger)

	// Handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, cartService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, idempotency, logger)
	visitorHandler := transport.NewVisitorHandler(visitorService, limitVerify, logger)
	portalHandler := transport.NewPortalHandler(walletService, billerService, recordService, idempotency, logger)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.SessionMiddleware(custommiddleware.SessionConfig{
			Secret:     cfg.Session.Secret,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.CookieSecure,
			TTL:        cfg.Session.TTL,
		}, logger))
		r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit",
		}, logger))
		r.Use(custommiddleware.CSRFMiddleware(logger))

		r.Get("/api/session", transport.Session)

		r.Route("/m/{"+custommiddleware.MemberParam+"}", func(r chi.Router) {
			catalogHandler.RegisterRoutes(r)
			cartHandler.RegisterRoutes(r)
			checkoutHandler.RegisterRoutes(r)
			visitorHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(requireVisitor)
				portalHandler.RegisterRoutes(r)
			})
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "community-portal"),
			IdleTimeout:  cfg.Server.IdleTimeout,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server, nil
}

// healthHandler reports database and Redis reachability
func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		dbHealth := deps.DB.Health(ctx)
		body["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
		}

		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			body["redis"] = "up"
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		custommiddleware.RespondWithJSON(w, status, body)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Close(); err != nil {
			s.logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
