package app

import (
	"context"
	"fmt"

	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/config"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/store"
)

// OpenBlobStore connects the backend named by cfg.BlobBackend.
func OpenBlobStore(ctx context.Context, cfg config.Common, log *logger.Logger) (store.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BackendRedis, "":
		rds := cache.NewRedis(cfg.RedisAddr, cfg.RedisDB)
		if err := rds.Ping(ctx); err != nil {
			_ = rds.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info("blob store ready", "backend", config.BackendRedis, "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return rds, nil
	case config.BackendPostgres:
		pg, err := store.NewPostgres(ctx, cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		log.Info("blob store ready", "backend", config.BackendPostgres)
		return pg, nil
	case config.BackendGCS:
		g, err := store.NewGCS(ctx, cfg.GCSBucket, cfg.StorageEmulatorHost)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		log.Info("blob store ready", "backend", config.BackendGCS, "bucket", cfg.GCSBucket, "emulator_host", cfg.StorageEmulatorHost)
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported BLOB_BACKEND %q", cfg.BlobBackend)
	}
}
