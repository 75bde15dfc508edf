package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopbasket/internal/cache"
	"shopbasket/internal/config"
	"shopbasket/internal/db"
	"shopbasket/internal/discountrpc"
	"shopbasket/internal/httpserver"
	"shopbasket/internal/logging"
	basketrepo "shopbasket/internal/repository/basket"
	productrepo "shopbasket/internal/repository/product"
	basketsvc "shopbasket/internal/service/basket"
	productsvc "shopbasket/internal/service/product"
	"shopbasket/internal/telemetry"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New("api", cfg.LogLevel)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, "basket-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.WithError(err).Fatal("init tracing")
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.WithLogger(logger), db.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer dbpool.Close()

	readyChecks := map[string]httpserver.ReadyCheck{"postgres": dbpool.Ping}

	var store basketrepo.Repository
	switch cfg.BasketStore {
	case "memory":
		logger.Warn("using in-memory basket store, baskets are lost on restart")
		store = basketrepo.NewMemory()
	default:
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, logger)
		if err != nil {
			logger.WithError(err).Fatal("connect to redis")
		}
		defer rdb.Close()
		store = basketrepo.NewRedis(rdb,
			basketrepo.WithKeyPrefix(cfg.BasketKeyPrefix),
			basketrepo.WithTTL(cfg.BasketTTL),
			basketrepo.WithLogger(logger),
		)
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	discounts, err := discountrpc.NewClient(cfg.DiscountGRPCAddr)
	if err != nil {
		logger.WithError(err).Fatal("init discount client")
	}
	defer discounts.Close()

	updater := basketsvc.NewUpdater(store, discounts,
		basketsvc.WithLookupTimeout(cfg.DiscountTimeout),
		basketsvc.WithConcurrency(cfg.LookupConcurrency),
		basketsvc.WithUpdaterLogger(logger),
	)
	basketService := basketsvc.New(store, updater)
	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		BasketSvc:   basketService,
		CatalogSvc:  productService,
		ReadyChecks: readyChecks,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("flush traces")
	}
}
