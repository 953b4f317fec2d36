package storage

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdb-resale/models"
)

func sampleTransaction() models.Transaction {
	return models.Transaction{
		Month:             sql.NullTime{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Town:              "ANG MO KIO",
		FlatType:          "3 ROOM",
		Block:             "406",
		StreetName:        "ANG MO KIO AVE 10",
		StoreyRange:       "01 TO 03",
		LeaseCommenceDate: sql.NullInt64{Int64: 1980, Valid: true},
		ResalePrice:       sql.NullFloat64{Float64: 280000, Valid: true},
	}
}

func TestExportColumnsFollowsDataset(t *testing.T) {
	ds := &models.Dataset{Columns: []string{"resale_price", "town", "month", "_id"}}
	assert.Equal(t, []string{"month", "town", "resale_price"}, ExportColumns(ds))
	assert.Equal(t, models.CanonicalColumns, ExportColumns(nil))
}

func TestCSVWriterWritesSubset(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, []string{"month", "town", "flat_type", "lease_commence_date", "resale_price"})
	require.NoError(t, err)

	missing := sampleTransaction()
	missing.ResalePrice = sql.NullFloat64{}

	require.NoError(t, w.WriteResult(models.FilteredResult{Subset: []models.Transaction{sampleTransaction(), missing}}))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"month,town,flat_type,lease_commence_date,resale_price",
		"2023-01,ANG MO KIO,3 ROOM,1980,280000",
		"2023-01,ANG MO KIO,3 ROOM,1980,",
	}, lines)
}

func TestCSVFileWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	w, err := NewCSVFileWriter(path, []string{"town"})
	require.NoError(t, err)
	require.NoError(t, w.WriteTransactions([]models.Transaction{sampleTransaction()}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "town\nANG MO KIO\n", string(data))
}
