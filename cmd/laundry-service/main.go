package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	"github.com/vasiliy-maslov/laundry-service/internal/catalog"
	"github.com/vasiliy-maslov/laundry-service/internal/config"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/db"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
	handlerhttp "github.com/vasiliy-maslov/laundry-service/internal/handler/http"
	"github.com/vasiliy-maslov/laundry-service/internal/inventory"
	"github.com/vasiliy-maslov/laundry-service/internal/live"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/receipt"
	"github.com/vasiliy-maslov/laundry-service/internal/storage"
	"github.com/vasiliy-maslov/laundry-service/internal/transport"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "laundry-service").Logger()

	log.Info().Msg("Starting laundry-service...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	blobs, err := storage.NewFileStore(cfg.Blob.Root, cfg.Blob.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare blob storage")
	}

	loc := cfg.Location()

	authSvc := auth.NewService(auth.NewRepository(pg.Pool), auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), blobs)
	customerSvc := customer.NewService(customer.NewRepository(pg.Pool))
	inventorySvc := inventory.NewService(inventory.NewRepository(pg.Pool), blobs)
	catalogSvc := catalog.NewService(catalog.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool), customerSvc, inventorySvc, catalogSvc,
		order.Options{AllowOversell: cfg.Inventory.AllowOversell})
	financeSvc := finance.NewService(finance.NewRepository(pg.X), loc)

	hub := live.NewHub()
	notifier := live.NewPostgresNotifier(pg.Pool)

	router := transport.NewRouter(transport.RouterConfig{
		Auth:   authSvc,
		Public: handlerhttp.NewAuthHandler(authSvc),
		Private: []transport.RouteRegistrar{
			handlerhttp.NewAuthHandler(authSvc),
			handlerhttp.NewCustomerHandler(customerSvc, orderSvc),
			handlerhttp.NewInventoryHandler(inventorySvc),
			handlerhttp.NewCatalogHandler(catalogSvc),
			handlerhttp.NewOrderHandler(orderSvc, receipt.Shop{
				Name:    cfg.Shop.Name,
				Address: cfg.Shop.Address,
				Phone:   cfg.Shop.Phone,
			}, loc),
			handlerhttp.NewFinanceHandler(financeSvc, finance.ShopHeader{
				Name:    cfg.Shop.Name,
				Address: cfg.Shop.Address,
				Phone:   cfg.Shop.Phone,
			}),
			handlerhttp.NewLiveHandler(hub, orderSvc, customerSvc, inventorySvc, financeSvc),
		},
		Blobs:     blobs.Handler(),
		BlobsPath: blobs.MountPath(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return notifier.Run(gctx, hub)
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("laundry-service stopped with error")
		return
	}

	log.Info().Msg("laundry-service stopped gracefully.")
}
