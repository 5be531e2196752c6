package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"open-homes-api/config"
	"open-homes-api/datasource"
	"open-homes-api/handlers"
	"open-homes-api/routes"
	"open-homes-api/services"
	"open-homes-api/storage"
	"open-homes-api/trademe"
	"open-homes-api/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// run serves until ctx is done or the server fails. Store and cache
// connections are closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Open Homes API starting ===")
	logger.Info("Config: source=%s | trademe=%s | rows=%d | store=%s",
		cfg.DataSource, cfg.TradeMeBaseURL(), cfg.TradeMeRows, cfg.StoreDriver)

	source, closers, err := buildSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise %s data source: %w", cfg.DataSource, err)
	}
	defer closeAll(closers)

	oc := handlers.NewOpenHomeController(source, services.NewInsightService(logger), logger)
	e := routes.NewRouter(oc)
	e.HidePort = true

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("[api] listening on %s", addr)
		serverErr <- e.Start(addr)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("[api] server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("[api] shutdown: %w", err)
	}
	return nil
}

// buildSource selects the data source named by DATA_SOURCE. The returned
// closers release the store and cache connections on shutdown.
func buildSource(cfg *config.Config, logger *utils.Logger) (datasource.Source, []io.Closer, error) {
	if cfg.DataSource == config.SourceStatic {
		src, err := datasource.LoadStatic(cfg.StaticDataPath)
		if err != nil {
			return nil, nil, err
		}
		all, _ := src.ListOpenHomes(context.Background())
		logger.Info("[static] loaded %d open homes from %s", len(all), cfg.StaticDataPath)
		return src, nil, nil
	}

	var closers []io.Closer
	client := trademe.NewClient(cfg, logger, nil)
	live := datasource.NewLive(client, services.NewOpenHomeMapper(logger), logger)

	if cfg.RedisAddr != "" {
		cache := storage.NewResponseCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := cache.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("[cache] redis at %s unreachable, continuing without cache: %v", cfg.RedisAddr, err)
			cache.Close()
		} else {
			logger.Info("[cache] caching live results in redis for %s", cfg.CacheTTL())
			live.WithCache(cache, cfg.CacheTTL())
			closers = append(closers, cache)
		}
	}

	switch cfg.DataSource {
	case config.SourceLive:
		return live, closers, nil
	case config.SourceCached:
		store, err := openStore(cfg, logger)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		return datasource.NewCached(store, live, logger), append(closers, store), nil
	default:
		closeAll(closers)
		return nil, nil, fmt.Errorf("unknown DATA_SOURCE %q", cfg.DataSource)
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func openStore(cfg *config.Config, logger *utils.Logger) (storage.OpenHomeStore, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.DBMaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	ctx := context.Background()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		logger.Info("[store] connecting to postgres at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
		return storage.NewPostgresStore(ctx, cfg.DSN(), retry)
	case config.DriverMongo:
		logger.Info("[store] connecting to mongodb database %s", cfg.MongoDatabase)
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, retry)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
