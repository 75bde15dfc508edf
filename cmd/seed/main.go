package main

import (
	"context"

	"shopbasket/internal/config"
	"shopbasket/internal/db"
	"shopbasket/internal/logging"
	"shopbasket/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New("seed", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.WithLogger(logger), db.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, logger); err != nil {
		logger.WithError(err).Fatal("seed apply")
	}
}
