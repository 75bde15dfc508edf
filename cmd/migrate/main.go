package main

import (
	"context"

	"shopbasket/internal/config"
	"shopbasket/internal/db"
	"shopbasket/internal/logging"
	"shopbasket/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New("migrate", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.WithLogger(logger), db.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	version, err := migrate.Apply(ctx, pool, logger)
	if err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	logger.WithField("version", version).Info("migrations applied")
}
