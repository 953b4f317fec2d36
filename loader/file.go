package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"hdb-resale/models"
	"hdb-resale/utils"
)

// FileLoader reads a delimited file with a header row.
type FileLoader struct {
	path      string
	delimiter rune
	logger    *utils.Logger
}

// NewFileLoader creates a FileLoader for path.
func NewFileLoader(path string, delimiter rune, logger *utils.Logger) *FileLoader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &FileLoader{path: path, delimiter: delimiter, logger: logger}
}

// Load reads every row of the file. All columns are read as text and
// coerced afterwards, so one bad cell never fails the whole file.
func (l *FileLoader) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("%w", err)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, unavailable("open %q: %w", l.path, err)
	}
	source := fmt.Sprintf("file:%s", l.path)

	header, hasRows, err := peekHeader(data, l.delimiter)
	if err != nil {
		return nil, unavailable("parse %q: %w", l.path, err)
	}
	columns := columnKeys(header)
	if !hasRows {
		l.logger.Warn("[loader] %s has a header but no rows", l.path)
		return newDataset(source, columns, nil, l.logger), nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(l.delimiter),
	)
	if df.Err != nil {
		return nil, unavailable("parse %q: %w", l.path, df.Err)
	}

	rows := df.Records()
	if len(rows) == 0 {
		return nil, unavailable("parse %q: no header row", l.path)
	}

	raw := make([]models.RawTransaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(models.RawTransaction, len(columns))
		for i, col := range columns {
			if i < len(row) {
				r[col] = row[i]
			}
		}
		raw = append(raw, r)
	}

	l.logger.Debug("[loader] Read %d rows x %d columns from %s", len(raw), len(columns), l.path)
	return newDataset(source, columns, raw, l.logger), nil
}

// peekHeader returns the header record and whether any record follows it.
// gota refuses a frame without rows, so header-only files are caught here.
func peekHeader(data []byte, delimiter rune) ([]string, bool, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("no header row")
	}
	if err != nil {
		return nil, false, err
	}
	_, err = r.Read()
	return header, !errors.Is(err, io.EOF), nil
}

func columnKeys(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = columnKey(h)
	}
	return columns
}

// columnKey converts "Resale Price" to "resale_price".
func columnKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}
