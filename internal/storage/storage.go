// Package storage defines the contract every image backend satisfies and picks the backend at startup
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/UnendingLoop/ImageHost/internal/config"
	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/UnendingLoop/ImageHost/internal/mwlogger"
	"github.com/UnendingLoop/ImageHost/internal/storage/localstorage"
	"github.com/UnendingLoop/ImageHost/internal/storage/memstorage"
	"github.com/UnendingLoop/ImageHost/internal/storage/miniostorage"
)

// Provider - контракт хранилища, хендлеры и сервис работают только через него
type Provider interface {
	// Save persists data under filename and returns the URL clients fetch it by.
	Save(ctx context.Context, filename string, data []byte) (string, error)
	// Read returns the whole object or model.ErrFileNotFound.
	Read(ctx context.Context, filename string) ([]byte, error)
	// Delete removes the object or returns model.ErrFileNotFound.
	Delete(ctx context.Context, filename string) error
	Exists(ctx context.Context, filename string) (bool, error)
	// List, Count and TotalSize enumerate the backend on every call.
	List(ctx context.Context) ([]model.FileInfo, error)
	Count(ctx context.Context) (int, error)
	TotalSize(ctx context.Context) (int64, error)
	PublicURL(filename string) string
}

// DirectServer is implemented by backends whose objects are publicly reachable,
// so reads can be answered with a redirect instead of proxying bytes.
type DirectServer interface {
	DirectURL(filename string) string
}

// NewProvider builds the backend selected by cfg.StorageType.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.StorageType {
	case config.StorageLocal:
		s, err := localstorage.NewLocalStorage(cfg.LocalStoragePath, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		return memstorage.NewMemStorage(cfg.PublicBaseURL), nil
	case config.StorageS3:
		s, err := NewObjectStorage(ctx, cfg, cfg.StorageConnectDelay)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// NewObjectStorage retries the connection with a fixed delay until it succeeds or ctx is done.
func NewObjectStorage(ctx context.Context, cfg *config.Config, delay time.Duration) (*miniostorage.MinioImageStorage, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	opts := miniostorage.Options{
		Endpoint:     cfg.S3.Endpoint,
		AccessKey:    cfg.S3.AccessKeyID,
		SecretKey:    cfg.S3.SecretAccessKey,
		Bucket:       cfg.S3.Bucket,
		Region:       cfg.S3.Region,
		CustomDomain: cfg.S3.CustomDomain,
		CreateBucket: cfg.S3.CreateBucket,
	}

	for {
		logger.Info().Str("bucket", opts.Bucket).Msg("Connecting to IMG-storage...")
		client, err := miniostorage.NewMinioStorage(ctx, opts)
		if err == nil {
			logger.Info().Msg("Successfully connected IMG-storage!")
			return client, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("gave up connecting to IMG-storage: %w", err)
		}

		logger.Error().Err(err).Dur("retry_in", delay).Msg("Failed to init connection to IMG-storage")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up connecting to IMG-storage: %w", err)
		case <-time.After(delay):
		}
	}
}
