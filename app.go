package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto/internal/cache"
	"resto/internal/config"
	"resto/internal/database"
	"resto/internal/handlers"
	"resto/internal/metrics"
	"resto/internal/middleware"
	"resto/internal/repositories"
	"resto/internal/services"
	"resto/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const serviceName = "restaurant-backend"

// App is the HTTP server together with the resources it owns.
type App struct {
	Fiber   *fiber.App
	Store   repositories.Store
	closers []func() error
}

// NewApp opens storage, connects the optional event and cache backends and registers every route.
// The rate limiter's cleanup loop runs until ctx is cancelled.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}

	store, err := a.openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	a.Store = store

	if cfg.SeedMenu {
		n, err := database.SeedMenu(ctx, store.Dishes())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed menu: %w", err)
		}
		if n > 0 {
			log.WithField("dishes", n).Info("Seeded starter menu")
		}
	}

	// --- Optional backends ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, order events disabled")
		} else {
			publisher = mqClient
			a.closers = append(a.closers, mqClient.Close)
		}
	}

	authOpts := []services.AuthOption{}
	if cfg.RedisURL != "" {
		sessionCache, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, session cache disabled")
		} else {
			authOpts = append(authOpts, services.WithSessionCache(sessionCache))
			a.closers = append(a.closers, sessionCache.Close)
		}
	}

	// --- Services ---
	authService := services.NewAuthService(store, cfg.PasswordPepper, cfg.SessionTTL, log, authOpts...)
	menuService := services.NewMenuService(store, log)
	orderService := services.NewOrderService(store, publisher, log)

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginRateBurst, log)
	limiter.StartCleanup(ctx, time.Minute)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: handlers.NewErrorHandler(log),
	})

	requestLog := log.Writer()
	a.closers = append(a.closers, requestLog.Close)

	app.Use(fiberrecover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${pid} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		Output: requestLog,
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", metrics.Handler())

	handlers.NewMenuHandler(menuService).RegisterRoutes(app)
	handlers.NewAuthHandler(authService, limiter.Handler(), log).RegisterRoutes(app)
	handlers.NewOrderHandler(orderService, authService, log).RegisterRoutes(app)
	handlers.NewAdminHandler(orderService, menuService, authService, log).RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not Found",
			"path":  c.Path(),
		})
	})

	a.Fiber = app
	return a, nil
}

func (a *App) openStore(cfg *config.Config, log logrus.FieldLogger) (repositories.Store, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("Using in-memory storage, data is lost on restart")
		return repositories.NewMemoryStore(), nil
	}

	dialector, err := database.Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(dialector, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	return repositories.NewGORMStore(db), nil
}

// Close releases the resources opened by NewApp, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
