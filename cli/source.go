package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"hdb-resale/config"
	"hdb-resale/loader"
	"hdb-resale/storage"
	"hdb-resale/utils"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLoader picks the Loader for cfg.DataSource. The returned closer
// releases any database connection the loader holds.
func newLoader(ctx context.Context, cfg *config.Config, logger *utils.Logger) (loader.Loader, io.Closer, error) {
	switch cfg.DataSource {
	case config.SourceFile:
		return loader.NewFileLoader(cfg.DataFile, cfg.CSVDelimiter, logger), nopCloser{}, nil
	case config.SourceRemote:
		return loader.NewRemoteLoader(loader.RemoteOptions{
			BaseURL:     cfg.DatastoreURL,
			ResourceID:  cfg.DatastoreResourceID,
			PageLimit:   cfg.DatastorePageLimit,
			MaxRecords:  cfg.DatastoreMaxRecords,
			Concurrency: cfg.MaxConcurrency,
			RateLimit:   cfg.RateLimit(),
			Timeout:     cfg.HTTPTimeout,
		}, logger), nopCloser{}, nil
	case config.SourcePostgres:
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return loader.NewStoreLoader(store, logger), store, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q (want file, remote or postgres)", cfg.DataSource)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.PostgresStore, error) {
	return storage.NewPostgresStore(ctx, cfg.DSN(), &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   time.Second,
		Logger:      logger,
	})
}
