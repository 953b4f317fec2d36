package storage

import (
	"context"

	"hdb-resale/models"
)

// DatasetWriter is the interface any snapshot backend must satisfy.
type DatasetWriter interface {
	Write(ctx context.Context, ds *models.Dataset) error
	Close() error
}

// DatasetReader returns the most recently written snapshot.
type DatasetReader interface {
	FetchAll(ctx context.Context) (*models.Dataset, error)
}

// ResultWriter persists the subset of one filter invocation.
type ResultWriter interface {
	WriteResult(r models.FilteredResult) error
	Close() error
}
