package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cardioguard/config"
	"cardioguard/dataset"
	"cardioguard/db"
	chttp "cardioguard/http"
	"cardioguard/logging"
	"cardioguard/ml"
	"cardioguard/monitoring"
	"cardioguard/prediction"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml or ../config.yaml)")
	flag.Parse()

	if err := run(resolveConfigPath(*configPath)); err != nil {
		log.Fatalf("cardioguard: %v", err)
	}
}

// resolveConfigPath looks for config in root even if run from cmd/. An empty
// result means defaults only.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	for _, candidate := range []string{"config.yaml", filepath.Join("..", "config.yaml")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func run(configPath string) (err error) {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	logger.Info("configuration loaded", zap.String("path", configPath))

	metrics := monitoring.NewMetricsCollector()

	// 3. Model artifacts, loaded once. A failure leaves the service degraded.
	service, err := newPredictionService(cfg, logger, metrics)
	if err != nil {
		return err
	}

	// 4. Database
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	// 5. Monitoring
	hub := monitoring.NewHub(logger.Named("ws"), cfg.HTTP.AllowedOrigins)
	go hub.Run()

	deps := chttp.Deps{
		Predictor: service,
		Store:     store,
		Metrics:   metrics,
		Hub:       hub,
		Logger:    logger.Named("http"),
	}

	// 6. Dataset statistics
	var watcher *dataset.Watcher
	if cfg.Dataset.Path != "" {
		source := dataset.NewSource(cfg.Dataset.Path, logger.Named("dataset"))
		deps.Dataset = source
		if cfg.Dataset.Watch {
			watcher, err = dataset.NewWatcher(source, logger.Named("dataset"))
			if err != nil {
				logger.Warn("dataset watcher disabled", zap.Error(err))
				watcher = nil
			} else {
				watcher.OnInvalidate = func() {
					_ = hub.Publish(monitoring.DatasetChangedType, map[string]string{"path": cfg.Dataset.Path})
				}
				watcher.Start()
			}
		}
	}

	// 7. HTTP server
	server := chttp.NewServer(chttp.ServerConfigFrom(cfg.HTTP), chttp.NewHandlers(deps), logger.Named("http"))
	server.OnShutdown(store)
	if watcher != nil {
		server.OnShutdown(watcher)
	}
	server.OnShutdown(closerFunc(func() error {
		hub.Stop()
		<-hub.Done()
		return nil
	}))

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err = <-serveErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	err = multierr.Append(err, server.Stop())
	logger.Info("exiting")
	return err
}

func newPredictionService(cfg *config.Config, logger *zap.Logger, metrics *monitoring.MetricsCollector) (*prediction.Service, error) {
	opts := []prediction.Option{
		prediction.WithLogger(logger.Named("prediction")),
		prediction.WithStageObserver(metrics.ObserveStage),
	}
	if cfg.Cache.Size > 0 {
		cache, err := prediction.NewResultCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
		opts = append(opts, prediction.WithResultCache(cache))
	}

	artifacts, err := ml.LoadBundle(cfg.Model.BundlePath)
	if err != nil {
		level := logger.Error
		if errors.Is(err, os.ErrNotExist) {
			level = logger.Warn
		}
		level("model bundle not loaded, predictions disabled",
			zap.String("path", cfg.Model.BundlePath), zap.Error(err))
		return prediction.NewService(nil, opts...), nil
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.BundlePath),
		zap.String("model_type", artifacts.Info.ModelType))
	return prediction.NewService(artifacts, opts...), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
