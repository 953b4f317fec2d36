package loader

import (
	"context"

	"hdb-resale/models"
	"hdb-resale/storage"
	"hdb-resale/utils"
)

// StoreLoader reads the snapshot last written by the sync command.
type StoreLoader struct {
	store  storage.DatasetReader
	logger *utils.Logger
}

// NewStoreLoader creates a StoreLoader over store.
func NewStoreLoader(store storage.DatasetReader, logger *utils.Logger) *StoreLoader {
	return &StoreLoader{store: store, logger: logger}
}

// Load returns the stored snapshot under its original load ID.
func (l *StoreLoader) Load(ctx context.Context) (*models.Dataset, error) {
	ds, err := l.store.FetchAll(ctx)
	if err != nil {
		return nil, unavailable("%w", err)
	}
	l.logger.Info("[loader] Loaded snapshot %s (%d records) from %s", ds.ID, ds.Len(), ds.Source)
	return ds, nil
}
