package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"retail-pos/internal/config"
	"retail-pos/internal/database"
	custommiddleware "retail-pos/internal/middleware"
	"retail-pos/internal/service"
	"retail-pos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP surface is built on.
// Database, Redis and Receipts are optional.
type Dependencies struct {
	Database  database.Service
	Redis     *redis.Client
	Sales     service.SaleService
	Shifts    service.ShiftService
	Inventory service.InventoryService
	Analytics transport.SummaryProvider
	Receipts  transport.ReceiptFinder

	// Closers are released in order by Close, after the HTTP server stops
	Closers []io.Closer
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger.Named("http")))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", healthHandler(deps))

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	registerMatch := custommiddleware.RequireRegisterMatch(logger)
	rateLimit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		rateLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.Window) * time.Second,
			KeyPrefix:         cfg.Redis.KeyPrefix + ":rate_limit",
		}, logger)
	}

	shiftHandler := transport.NewShiftHandler(deps.Shifts, logger)
	saleHandler := transport.NewSaleHandler(deps.Sales, logger)
	inventoryHandler := transport.NewInventoryHandler(deps.Inventory, logger)
	analyticsHandler := transport.NewAnalyticsHandler(deps.Analytics, deps.Sales, logger)

	router.Get("/api/registers", shiftHandler.ListAssignments)
	router.Route("/api/registers/{registerID}", func(r chi.Router) {
		shiftHandler.RegisterRoutes(r, authMiddleware, registerMatch)
		saleHandler.RegisterRoutes(r, authMiddleware, registerMatch, rateLimit)
	})
	inventoryHandler.RegisterRoutes(router, authMiddleware)
	transport.NewCashierHandler(deps.Shifts, logger).RegisterRoutes(router, authMiddleware)
	analyticsHandler.RegisterRoutes(router)

	if deps.Receipts != nil {
		transport.NewReceiptHandler(deps.Receipts, logger).RegisterRoutes(router)
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		status := http.StatusOK

		if deps.Database != nil {
			health := deps.Database.Health()
			body["database"] = health
			if health["status"] != "up" {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
				body["redis"] = "down"
			} else {
				body["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

// Close releases everything the server was built on
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, c := range s.deps.Closers {
		if err := c.Close(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.deps.Database != nil {
		if err := s.deps.Database.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
