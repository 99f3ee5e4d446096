package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-points/internal/config"
	"go-points/internal/db"
	"go-points/internal/events"
	"go-points/internal/logger"
	"go-points/internal/router"
	"go-points/internal/services"
	"go-points/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	log := logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("Point service starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	balances, histories, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer closeStores()

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect event publisher")
	}
	defer closePublisher()

	pointService := services.NewPointService(balances, histories, publisher, log)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.SetupRouter(pointService, log, router.Options{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutdown signal received...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server stopped")
}

func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.BalanceStore, store.HistoryStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		database, err := db.InitDB(cfg.DBUrl, log)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(database, log); err != nil {
			database.Close()
			return nil, nil, nil, err
		}
		return store.NewMySQLBalanceStore(database), store.NewMySQLHistoryStore(database), func() { database.Close() }, nil

	case config.StoreRedis:
		rdb, err := db.InitRedis(ctx, cfg.RedisAddr, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return store.NewRedisBalanceStore(rdb), store.NewRedisHistoryStore(rdb), func() { rdb.Close() }, nil

	default:
		return store.NewMemoryBalanceStore(), store.NewMemoryHistoryStore(), func() {}, nil
	}
}

func openPublisher(cfg config.Config, log zerolog.Logger) (events.Publisher, func(), error) {
	nc, err := events.Connect(cfg.NatsURL)
	if err != nil {
		return nil, nil, err
	}
	if nc == nil {
		log.Info().Msg("NATS_URL not set, point events disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	log.Info().Str("url", cfg.NatsURL).Msg("Publishing point events to NATS")
	return events.NewNatsPublisher(nc), func() {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
	}, nil
}
