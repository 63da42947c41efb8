package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/config"
	"github.com/iliyamo/line-seat-reservation/internal/database"
	"github.com/iliyamo/line-seat-reservation/internal/handler"
	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/middleware"
	"github.com/iliyamo/line-seat-reservation/internal/queue"
	"github.com/iliyamo/line-seat-reservation/internal/repository"
	"github.com/iliyamo/line-seat-reservation/internal/router"
	"github.com/iliyamo/line-seat-reservation/internal/service"
	"github.com/iliyamo/line-seat-reservation/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	line, err := config.LoadLine(cfg.LinePath)
	if err != nil {
		return err
	}
	topology, err := booking.NewTopology(line.StopList()...)
	if err != nil {
		return err
	}

	var (
		db        *sql.DB
		catalog   booking.Catalog
		ledger    booking.Ledger
		operators operatorStore
	)
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer logging.SafeCloseWithLogging(db, logger, "database")
		if err := provision(ctx, db, line, logger); err != nil {
			return err
		}
		catalog = booking.NewCachedCatalog(repository.NewRouteRepo(db), cfg.Allocation.CatalogCacheTTL)
		ledger = repository.NewAllocationLedger(db, cfg.Allocation.LockPrefix, cfg.Allocation.LockTimeout)
		operators = repository.NewOperatorRepo(db)
	default:
		catalog = booking.NewStaticCatalog(line.RouteList())
		ledger = repository.NewMemoryLedger(line.SeatPool(), cfg.Allocation.LockTimeout)
		operators = repository.NewStaticOperators()
	}
	if err := seedOperator(ctx, cfg, operators, logger); err != nil {
		return err
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer logging.SafeCloseWithLogging(rdb, logger, "redis")
	}

	local, err := utils.NewLocalNumbers()
	if err != nil {
		return err
	}
	var numbers booking.NumberGenerator = local
	if rdb != nil {
		numbers = utils.NewRedisNumbers(rdb, "", local)
	}

	svc := booking.NewService(booking.NewEngine(topology, catalog), ledger, numbers, booking.RetryPolicy{
		MaxAttempts: cfg.Allocation.MaxAttempts,
		Backoff:     cfg.Allocation.Backoff,
		MaxBackoff:  cfg.Allocation.MaxBackoff,
	})

	var events handler.EventPublisher
	if cfg.AMQPURL != "" {
		pub := service.NewQueuePublisher(cfg.AMQPURL, logger, service.PublisherConfig{})
		defer logging.SafeCloseWithLogging(pub, logger, "queue_publisher")
		events = pub
		go func() {
			if err := queue.StartReservationConsumer(ctx, cfg.AMQPURL, queue.DefaultLogPath, logger); err != nil && !errors.Is(err, context.Canceled) {
				logging.LogError(logger, "reservation consumer stopped", err)
			}
		}()
	} else {
		logger.Info("RABBITMQ_URL not set, reservation events disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	reservations := handler.NewReservationHandler(svc, events)

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	router.RegisterRoutes(e, handler.Health(pinger))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.JWTSecret, cfg.AccessTTLMin, operators), limit)
	router.RegisterPublic(e, reservations, handler.NewRouteHandler(svc), limit, cache)
	router.RegisterOperator(e, reservations, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening",
		slog.String("addr", addr),
		slog.String("env", cfg.Env),
		slog.String("store", cfg.StoreDriver),
		slog.Int("stops", len(line.Stops)),
		slog.Int("seats", line.Fleet.Seats))

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// provision migrates the schema and seeds the configured routes and seats.
func provision(ctx context.Context, db *sql.DB, line *config.LineConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	if err := repository.NewRouteRepo(db).Seed(ctx, line.RouteList()); err != nil {
		return err
	}
	if err := repository.NewSeatRepo(db).Provision(ctx, line.SeatPool()); err != nil {
		return err
	}
	logging.LogOperation(logger, "store provisioned",
		slog.Int("routes", len(line.Routes)),
		slog.Int("seats", line.Fleet.Seats))
	return nil
}

// operatorStore is implemented by both operator repositories.
type operatorStore interface {
	handler.OperatorStore
	Upsert(ctx context.Context, username, passwordHash, role string) error
}

// seedOperator stores the configured operator account.  The configured
// bcrypt hash wins over the plain OPERATOR_PASSWORD, which is hashed here.
// Without either, existing accounts are left as they are.
func seedOperator(ctx context.Context, cfg config.Config, store operatorStore, logger *slog.Logger) error {
	hash := cfg.OperatorPasswordHash
	if hash == "" {
		if cfg.OperatorPassword == "" {
			logger.Warn("no operator password configured, operator account not seeded")
			return nil
		}
		var err error
		if hash, err = utils.HashPassword(cfg.OperatorPassword, cfg.BcryptCost); err != nil {
			return err
		}
	}
	if err := store.Upsert(ctx, cfg.OperatorUsername, hash, middleware.RoleOperator); err != nil {
		return err
	}
	logger.Info("operator account seeded", slog.String("username", cfg.OperatorUsername))
	return nil
}
