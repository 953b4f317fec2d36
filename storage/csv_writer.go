package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"hdb-resale/models"
)

var _ ResultWriter = (*CSVWriter)(nil)

// CSVWriter writes filtered transactions as CSV.
// It is safe for concurrent use.
type CSVWriter struct {
	mu      sync.Mutex
	closer  io.Closer
	writer  *csv.Writer
	columns []string
}

// ExportColumns picks the canonical columns the dataset actually carries,
// or all canonical columns when ds has no schema.
func ExportColumns(ds *models.Dataset) []string {
	if ds == nil || len(ds.Columns) == 0 {
		return models.CanonicalColumns
	}
	cols := make([]string, 0, len(models.CanonicalColumns))
	for _, c := range models.CanonicalColumns {
		if ds.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// NewCSVWriter writes the header row for columns to w.
func NewCSVWriter(w io.Writer, columns []string) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	return &CSVWriter{writer: cw, columns: columns}, nil
}

// NewCSVFileWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVFileWriter(path string, columns []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := NewCSVWriter(f, columns)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// WriteResult writes every record of the filtered subset, in order.
func (c *CSVWriter) WriteResult(r models.FilteredResult) error {
	return c.WriteTransactions(r.Subset)
}

// WriteTransactions appends one row per transaction.
func (c *CSVWriter) WriteTransactions(txs []models.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := make([]string, len(c.columns))
	for _, t := range txs {
		for i, col := range c.columns {
			row[i] = t.Field(col)
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
