package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopbasket/internal/config"
	"shopbasket/internal/db"
	"shopbasket/internal/discountrpc"
	"shopbasket/internal/httpserver"
	"shopbasket/internal/logging"
	discountrepo "shopbasket/internal/repository/discount"
	discountsvc "shopbasket/internal/service/discount"
	"shopbasket/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New("discount", cfg.LogLevel)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, "discount", cfg.OTLPEndpoint)
	if err != nil {
		logger.WithError(err).Fatal("init tracing")
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.WithLogger(logger), db.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer dbpool.Close()

	service := discountsvc.New(discountrepo.NewPostgres(dbpool, logger))

	lis, err := net.Listen("tcp", cfg.DiscountGRPCListen)
	if err != nil {
		logger.WithError(err).WithField("addr", cfg.DiscountGRPCListen).Fatal("listen grpc")
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	health := discountrpc.Register(grpcServer, discountrpc.NewServer(service, logger))

	srv, err := httpserver.New(cfg.DiscountHTTPAddr, logger, httpserver.Deps{
		DiscountSvc: service,
		ReadyChecks: map[string]httpserver.ReadyCheck{"postgres": dbpool.Ping},
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 2)
	go func() {
		logger.WithField("addr", cfg.DiscountGRPCListen).Info("grpc server listening")
		if err := grpcServer.Serve(lis); err != nil {
			serverErr <- err
		}
	}()
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

	health.Shutdown()
	grpcServer.GracefulStop()

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
