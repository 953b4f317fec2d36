// Package loader obtains the resale dataset from a file, the data.gov.sg
// datastore API, or a stored snapshot, and memoises it for the session.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hdb-resale/models"
	"hdb-resale/services"
	"hdb-resale/utils"
)

// ErrDataUnavailable is wrapped by every error a Loader returns when its
// source cannot be read or parsed.
var ErrDataUnavailable = errors.New("data unavailable")

// Loader produces a Dataset. Each call reads the source again.
type Loader interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// HTTPError represents a non-2xx answer from the remote source.
type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d (%s) from %s: %s", e.StatusCode, e.Status, e.Endpoint, e.Message)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrDataUnavailable, fmt.Errorf(format, args...))
}

// newDataset coerces raw rows into a freshly identified Dataset.
func newDataset(source string, columns []string, raw []models.RawTransaction, logger *utils.Logger) *models.Dataset {
	records, report := services.NewCoercer(logger).Coerce(raw)
	ds := &models.Dataset{
		ID:       uuid.New(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Columns:  columns,
		Records:  records,
	}
	logger.Info("[loader] Loaded %d records from %s (%d field values unparseable)",
		len(records), source, report.Total())
	return ds
}

// Cached memoises the Dataset of another Loader for the process lifetime.
// It is safe for concurrent use; concurrent first calls share one load.
type Cached struct {
	source Loader
	logger *utils.Logger

	mu sync.Mutex
	ds *models.Dataset
}

// NewCached wraps source.
func NewCached(source Loader, logger *utils.Logger) *Cached {
	return &Cached{source: source, logger: logger}
}

// Load returns the cached Dataset, loading it on first use. Failed loads
// are not cached.
func (c *Cached) Load(ctx context.Context) (*models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ds != nil {
		return c.ds, nil
	}
	ds, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.ds = ds
	return ds, nil
}

// Reload reads the source again. On failure the previous Dataset stays
// cached and the error is returned.
func (c *Cached) Reload(ctx context.Context) (*models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, err := c.source.Load(ctx)
	if err != nil {
		c.logger.Warn("[loader] Reload failed, keeping dataset %s: %v", datasetID(c.ds), err)
		return nil, err
	}
	c.ds = ds
	return ds, nil
}

func datasetID(ds *models.Dataset) string {
	if ds == nil {
		return "<none>"
	}
	return ds.ID.String()
}
