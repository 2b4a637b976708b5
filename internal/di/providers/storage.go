package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readingnook/readingnook-server/internal/config"
	"github.com/readingnook/readingnook-server/internal/logger"
	"github.com/readingnook/readingnook-server/internal/store"
	"github.com/readingnook/readingnook-server/internal/store/redis"
	"github.com/readingnook/readingnook-server/internal/store/sqlite"
)

// StoreHandle wraps the key-value store with shutdown capability.
type StoreHandle struct {
	store.KV
	Driver string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the storage backend selected by the configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	kv, err := openStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"driver": cfg.Storage.Driver,
		"path":   cfg.Storage.Path,
	}).Info("Storage initialized")
	return &StoreHandle{KV: kv, Driver: cfg.Storage.Driver}, nil
}

func openStore(cfg config.StorageConfig, log *logger.Logger) (store.KV, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, nothing survives a restart")
		return store.NewMemory(), nil

	case config.DriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return redis.Open(ctx, redis.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: "readingnook:",
		}, log.Component("redis"))

	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.Open(filepath.Join(cfg.Path, "readingnook.db"), log.Component("sqlite"))

	case config.DriverBadger, "":
		return store.NewBadger(filepath.Join(cfg.Path, "db"), log.Component("badger"))

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
