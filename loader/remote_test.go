package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdb-resale/utils"
)

// datastoreServer serves total records, capping each page at serverCap
// when it is positive. overlap repeats the previous page's last record.
func datastoreServer(t *testing.T, total, serverCap int, overlap bool, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "test-resource", r.URL.Query().Get("resource_id"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if serverCap > 0 && limit > serverCap {
			limit = serverCap
		}
		start := offset
		if overlap && offset > 0 {
			start--
		}

		records := []map[string]any{}
		for i := start; i < offset+limit && i < total; i++ {
			records = append(records, map[string]any{
				"_id":                 i + 1,
				"month":               fmt.Sprintf("2023-%02d", i%12+1),
				"town":                fmt.Sprintf("TOWN %d", i),
				"flat_type":           "4 ROOM",
				"storey_range":        "04 TO 06",
				"lease_commence_date": "1990",
				"resale_price":        400000 + i,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": map[string]any{
				"fields": []map[string]string{
					{"id": "_id", "type": "int4"},
					{"id": "month", "type": "text"},
					{"id": "town", "type": "text"},
					{"id": "flat_type", "type": "text"},
					{"id": "storey_range", "type": "text"},
					{"id": "lease_commence_date", "type": "text"},
					{"id": "resale_price", "type": "numeric"},
				},
				"records": records,
				"total":   total,
			},
		})
	}))
}

func newTestRemote(url string, pageLimit, maxRecords int) *RemoteLoader {
	return NewRemoteLoader(RemoteOptions{
		BaseURL:     url,
		ResourceID:  "test-resource",
		PageLimit:   pageLimit,
		MaxRecords:  maxRecords,
		Concurrency: 3,
	}, utils.NewNopLogger())
}

func TestRemoteLoaderPaginatesInOrder(t *testing.T) {
	var hits int32
	srv := datastoreServer(t, 5, 0, false, &hits)
	defer srv.Close()

	ds, err := newTestRemote(srv.URL, 2, 0).Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 5, ds.Len())
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	for i, rec := range ds.Records {
		assert.Equal(t, fmt.Sprintf("TOWN %d", i), rec.Town)
		assert.Equal(t, float64(400000+i), rec.ResalePrice.Float64)
	}
	assert.Equal(t, []string{"month", "town", "flat_type", "storey_range", "lease_commence_date", "resale_price"}, ds.Columns)
	assert.Contains(t, ds.Source, "resource_id=test-resource")
}

func TestRemoteLoaderFollowsServerPageCap(t *testing.T) {
	srv := datastoreServer(t, 7, 3, false, nil)
	defer srv.Close()

	ds, err := newTestRemote(srv.URL, 5000, 0).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, ds.Len())
}

func TestRemoteLoaderDeduplicatesByID(t *testing.T) {
	srv := datastoreServer(t, 6, 0, true, nil)
	defer srv.Close()

	ds, err := newTestRemote(srv.URL, 2, 0).Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 6, ds.Len())
	assert.Equal(t, "TOWN 5", ds.Records[5].Town)
}

func TestRemoteLoaderMaxRecords(t *testing.T) {
	srv := datastoreServer(t, 10, 0, false, nil)
	defer srv.Close()

	ds, err := newTestRemote(srv.URL, 2, 3).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestRemoteLoaderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL, 2, 0).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestRemoteLoaderMalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"success false":    `{"success": false, "error": {"message": "bad resource"}}`,
		"missing records":  `{"success": true, "result": {"total": 3}}`,
		"no result":        `{"success": true}`,
		"empty first page": `{"success": true, "result": {"records": [], "total": 3}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestRemote(srv.URL, 2, 0).Load(context.Background())
			assert.True(t, errors.Is(err, ErrDataUnavailable), "got %v", err)
		})
	}
}

func TestRemoteLoaderEmptyResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "result": {"fields": [{"id": "_id"}, {"id": "town"}], "records": [], "total": 0}}`))
	}))
	defer srv.Close()

	ds, err := newTestRemote(srv.URL, 2, 0).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, []string{"town"}, ds.Columns)
}

func TestRemoteLoaderLaterPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "result": {"records": [{"_id": 1, "town": "BEDOK"}], "total": 3}}`))
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL, 1, 0).Load(context.Background())
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "abc", stringify("abc"))
	assert.Equal(t, "420000.5", stringify(json.Number("420000.5")))
	assert.Equal(t, "true", stringify(true))
}
