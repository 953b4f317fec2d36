package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdb-resale/models"
	"hdb-resale/services"
	"hdb-resale/utils"
)

type fakeSource struct {
	ds      *models.Dataset
	err     error
	reloads int
}

func (f *fakeSource) Load(context.Context) (*models.Dataset, error) { return f.ds, f.err }

func (f *fakeSource) Reload(context.Context) (*models.Dataset, error) {
	f.reloads++
	return f.ds, f.err
}

func tx(town, flatType string, price float64, year int64, month string) models.Transaction {
	m, _ := time.Parse("2006-01", month)
	return models.Transaction{
		Town:              town,
		FlatType:          flatType,
		StoreyRange:       "01 TO 03",
		ResalePrice:       sql.NullFloat64{Float64: price, Valid: true},
		LeaseCommenceDate: sql.NullInt64{Int64: year, Valid: true},
		Month:             sql.NullTime{Time: m, Valid: true},
	}
}

func testDataset() *models.Dataset {
	return &models.Dataset{
		ID:      uuid.New(),
		Source:  "file:test.csv",
		Columns: []string{"month", "town", "flat_type", "storey_range", "lease_commence_date", "resale_price"},
		Records: []models.Transaction{
			tx("ANG MO KIO", "3 ROOM", 280000, 1980, "2023-01"),
			tx("BEDOK", "4 ROOM", 420000, 1990, "2023-02"),
		},
	}
}

func newTestServer(src *fakeSource) http.Handler {
	logger := utils.NewNopLogger()
	return NewServer(src, services.NewPipeline(logger), logger).Routes()
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type decodedResults struct {
	DatasetID            string                  `json:"dataset_id"`
	Criteria             models.FilterCriteria   `json:"criteria"`
	Count                int                     `json:"count"`
	Records              []map[string]string     `json:"records"`
	AvgPriceByTown       []models.AggregatePoint `json:"avg_price_by_town"`
	FlatTypeDistribution []models.AggregatePoint `json:"flat_type_distribution"`
	Geo                  *models.GeoProjection   `json:"geo"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) decodedResults {
	t.Helper()
	var out decodedResults
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestResultsFromQuery(t *testing.T) {
	src := &fakeSource{ds: testDataset()}
	rec := serve(t, newTestServer(src), http.MethodGet, "/api/results?max_price=500000&lease_year_min=1980&lease_year_max=2000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, src.ds.ID.String(), out.DatasetID)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "ANG MO KIO", out.Records[0]["town"])
	assert.Equal(t, "280000", out.Records[0]["resale_price"])
	assert.Equal(t, []models.AggregatePoint{
		{Key: "BEDOK", Value: 420000, Count: 1},
		{Key: "ANG MO KIO", Value: 280000, Count: 1},
	}, out.AvgPriceByTown)
	assert.Nil(t, out.Geo)
}

func TestResultsDefaultsToZeroBudget(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{ds: testDataset()}), http.MethodGet, "/api/results", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, 0, out.Count)
	assert.Empty(t, out.Records)
	assert.Equal(t, int64(1980), out.Criteria.LeaseYearMin)
	assert.Equal(t, int64(1990), out.Criteria.LeaseYearMax)
}

func TestResultsFromJSONBody(t *testing.T) {
	body := `{"towns": ["ANG MO KIO"], "max_price": 300000}`
	rec := serve(t, newTestServer(&fakeSource{ds: testDataset()}), http.MethodPost, "/api/results", body)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []models.AggregatePoint{{Key: "3 ROOM", Value: 1, Count: 1}}, out.FlatTypeDistribution)
}

func TestResultsRejectsBadCriteria(t *testing.T) {
	h := newTestServer(&fakeSource{ds: testDataset()})

	rec := serve(t, h, http.MethodGet, "/api/results?max_price=cheap", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "max_price")

	rec = serve(t, h, http.MethodGet, "/api/results?lease_year_min=1980.5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, http.MethodPost, "/api/results", `{"budget": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsUnavailableDataset(t *testing.T) {
	h := newTestServer(&fakeSource{err: errors.New("disk gone")})

	for _, path := range []string{"/api/results", "/api/options", "/api/dataset", "/api/results.csv"} {
		rec := serve(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestOptions(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{ds: testDataset()}), http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"ANG MO KIO", "BEDOK"}, opts.Towns)
	assert.Equal(t, int64(1980), opts.LeaseYearMin)
}

func TestResultsCSV(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{ds: testDataset()}), http.MethodGet, "/api/results.csv?town=BEDOK&max_price=1000000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"month,town,flat_type,storey_range,lease_commence_date,resale_price\n"+
			"2023-02,BEDOK,4 ROOM,01 TO 03,1990,420000\n",
		rec.Body.String())
}

func TestReload(t *testing.T) {
	src := &fakeSource{ds: testDataset()}
	rec := serve(t, newTestServer(src), http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, src.reloads)
	assert.Contains(t, rec.Body.String(), src.ds.ID.String())
}

func TestResultsCompressed(t *testing.T) {
	ds := testDataset()
	for i := 0; i < 50; i++ {
		ds.Records = append(ds.Records, tx(fmt.Sprintf("TOWN %02d", i), "5 ROOM", 500000, 1985, "2023-03"))
	}
	h := newTestServer(&fakeSource{ds: ds})

	req := httptest.NewRequest(http.MethodGet, "/api/results?max_price=1000000", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}
