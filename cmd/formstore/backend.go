package main

import (
	"context"
	"log/slog"

	"github.com/vango-dev/formstore/internal/config"
	"github.com/vango-dev/formstore/internal/errors"
	"github.com/vango-dev/formstore/pkg/storage"
)

// openBackend builds the storage backend selected by cfg.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		s3cfg := cfg.Storage.S3
		client := storage.NewS3Client(storage.S3Config{
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			PathStyle: s3cfg.PathStyle,
		})
		return storage.NewS3Backend(client, s3cfg.Bucket), nil

	case config.BackendMinIO:
		mcfg := cfg.Storage.MinIO
		client, err := storage.NewMinIOClient(storage.MinIOConfig{
			Endpoint:  mcfg.Endpoint,
			Region:    mcfg.Region,
			AccessKey: mcfg.AccessKey,
			SecretKey: mcfg.SecretKey,
			UseSSL:    mcfg.UseSSL,
		})
		if err != nil {
			return nil, errors.New("E202").Wrap(err)
		}
		backend := storage.NewMinIOBackend(client, mcfg.Bucket, mcfg.Region)
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, errors.New("E201").WithDetail(mcfg.Bucket).Wrap(err)
		}
		return backend, nil

	case config.BackendDisk:
		backend := storage.NewDiskBackend(storage.WithDiskLogger(logger))
		for _, dir := range cfg.Directories() {
			if err := backend.EnsureDir(dir); err != nil {
				return nil, errors.New("E200").WithDetail(dir).Wrap(err)
			}
		}
		return backend, nil

	default:
		return nil, errors.New("E103").WithDetailf("storage.backend is %q", cfg.Storage.Backend)
	}
}
