// Package storage is the durable key-value store the console keeps its list
// filters and offline snapshots in.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reportconsole/internal/config"
)

// Store is a string key-value store. Get reports found=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Path, log)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
