package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/config"
	"github.com/example/grocer/internal/database"
	"github.com/example/grocer/internal/events"
	"github.com/example/grocer/internal/handlers"
	"github.com/example/grocer/internal/middleware"
	"github.com/example/grocer/internal/repository"
	"github.com/example/grocer/internal/routes"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/pkg/health"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	lg, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, lg)
	stop()

	if err != nil {
		lg.Error("Run failed", zap.Error(err))
	}
	_ = lg.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL, lg)
	if err != nil {
		return errors.Wrap(err, "connect database")
	}

	carts, orderOpts, cleanup, err := cartStore(ctx, cfg, db, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	observers := []services.OrderObserver{
		services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChat, lg),
	}
	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.OrderEventsQueue, lg)
		if err != nil {
			return errors.Wrap(err, "connect broker")
		}
		defer func() { _ = publisher.Close() }()
		observers = append(observers, publisher)
	}
	orderOpts = append(orderOpts, services.WithObservers(observers...))

	products := repository.NewProductRepository(db)
	discounts := services.NewDiscountService(
		repository.NewOfferRepository(db),
		services.WithUsageLimit(cfg.EnforceOfferUsageLimit),
	)
	orders := services.NewOrderService(
		repository.NewTransactor(db),
		carts,
		products,
		repository.NewOrderRepository(db),
		discounts,
		lg,
		orderOpts...,
	)

	hc := health.New()
	hc.AddReadinessCheck("database", 2*time.Second, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})
	if sqlDB, err := db.DB(); err == nil {
		hc.AddReadinessCheck("database-pool", time.Second, health.PoolWaits(sqlDB.Stats, 500))
	}
	hc.AddLivenessCheck("goroutines", time.Second, health.MaxGoroutines(10000*runtime.NumCPU()))

	app := fiber.New(fiber.Config{
		AppName:      "Grocer Backend",
		ErrorHandler: handlers.ErrorHandler(lg),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins, AllowCredentials: true}))
	app.Use(middleware.RequestLogger(lg))

	routes.Register(app, routes.Deps{
		DB:        db,
		Config:    cfg,
		Logger:    lg,
		Carts:     services.NewCartService(carts, products),
		Discounts: discounts,
		Orders:    orders,
		Health:    hc,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Starting server", zap.String("port", cfg.AppPort))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		return hc.Run(gCtx, cfg.HealthInterval)
	})
	g.Go(func() error {
		<-gCtx.Done()
		hc.SetReady(false)
		lg.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	hc.SetReady(true)
	return g.Wait()
}

// cartStore picks the cart backend. The mongo store cannot join the order
// transaction, so checkout clears it after commit.
func cartStore(ctx context.Context, cfg *config.Config, db *gorm.DB, lg *zap.Logger) (services.CartStore, []services.OrderOption, func(), error) {
	if cfg.CartStore != config.CartStoreMongo {
		return repository.NewCartRepository(db), nil, func() {}, nil
	}

	client, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "connect mongo")
	}
	cleanup := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			lg.Warn("Disconnect mongo", zap.Error(err))
		}
	}

	repo := repository.NewMongoCartRepository(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		cleanup()
		return nil, nil, nil, errors.Wrap(err, "ensure cart indexes")
	}
	lg.Info("Using mongo cart store", zap.String("database", cfg.MongoDatabase))
	return repo, []services.OrderOption{services.WithDetachedCartStore()}, cleanup, nil
}
