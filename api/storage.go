package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harlequingg/todo-assistant/internal/storage"
)

func openStorage(ctx context.Context, cfg config, log *slog.Logger) (*storage.DB, error) {
	db, err := storage.Open(ctx, log, storage.Config{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxIdleTime:  cfg.DB.MaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return db, nil
}
