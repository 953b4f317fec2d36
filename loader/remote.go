package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"hdb-resale/models"
	"hdb-resale/utils"
)

const (
	defaultPageLimit = 5000
	defaultUserAgent = "hdb-resale/1.0"
	maxPages         = 1000
	recordIDField    = "_id"
)

// RemoteOptions configures a RemoteLoader.
type RemoteOptions struct {
	// BaseURL is the datastore_search endpoint.
	BaseURL    string
	ResourceID string
	// PageLimit bounds the records requested per call.
	PageLimit int
	// MaxRecords caps the total number of records; 0 loads everything.
	MaxRecords  int
	Concurrency int
	RateLimit   time.Duration
	Timeout     time.Duration
	Client      *http.Client
}

// RemoteLoader pages through a CKAN-style datastore_search endpoint.
type RemoteLoader struct {
	opts   RemoteOptions
	client *http.Client
	logger *utils.Logger
}

type datastoreField struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type datastoreResponse struct {
	Success *bool `json:"success"`
	Result  *struct {
		Fields  []datastoreField `json:"fields"`
		Records []map[string]any `json:"records"`
		Total   *int             `json:"total"`
	} `json:"result"`
}

type page struct {
	fields  []datastoreField
	records []map[string]any
	total   int
}

// NewRemoteLoader creates a RemoteLoader, filling in defaults.
func NewRemoteLoader(opts RemoteOptions, logger *utils.Logger) *RemoteLoader {
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteLoader{opts: opts, client: client, logger: logger}
}

// Load fetches the first page to learn the total, then the remaining
// pages through a rate-limited worker pool. Pages are reassembled in
// offset order and records repeated across pages are kept once.
func (l *RemoteLoader) Load(ctx context.Context) (*models.Dataset, error) {
	start := time.Now()
	limit := l.opts.PageLimit
	if l.opts.MaxRecords > 0 && l.opts.MaxRecords < limit {
		limit = l.opts.MaxRecords
	}

	first, err := l.fetchPage(ctx, 0, limit)
	if err != nil {
		return nil, err
	}

	total := first.total
	if l.opts.MaxRecords > 0 && total > l.opts.MaxRecords {
		total = l.opts.MaxRecords
	}

	// the server may cap a page below the requested limit
	step := len(first.records)
	if step == 0 && total > 0 {
		return nil, unavailable("first page is empty but total is %d", total)
	}
	var offsets []int
	for off := step; step > 0 && off < total; off += step {
		offsets = append(offsets, off)
	}
	if len(offsets) > maxPages {
		return nil, unavailable("%d pages needed, limit is %d", len(offsets), maxPages)
	}

	pages := make([]*page, len(offsets)+1)
	pages[0] = first

	pool := utils.NewWorkerPool(ctx, l.opts.Concurrency, l.opts.RateLimit)
	for i, off := range offsets {
		i, off := i, off
		n := step
		if total-off < n {
			n = total - off
		}
		pool.Submit(func(ctx context.Context) error {
			p, err := l.fetchPage(ctx, off, n)
			if err != nil {
				return err
			}
			pages[i+1] = p
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		if !errors.Is(err, ErrDataUnavailable) {
			err = unavailable("%w", err)
		}
		return nil, err
	}

	seen := make(map[string]struct{})
	var raw []models.RawTransaction
	for _, p := range pages {
		for _, rec := range p.records {
			if id, ok := rec[recordIDField]; ok {
				key := stringify(id)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			raw = append(raw, toRaw(rec))
		}
	}
	if l.opts.MaxRecords > 0 && len(raw) > l.opts.MaxRecords {
		raw = raw[:l.opts.MaxRecords]
	}

	l.logger.Debug("[loader] Fetched %d pages (%d records) in %v", len(pages), len(raw), time.Since(start))
	return newDataset(l.source(), columnsOf(first), raw, l.logger), nil
}

func (l *RemoteLoader) source() string {
	return fmt.Sprintf("%s?resource_id=%s", l.opts.BaseURL, l.opts.ResourceID)
}

func (l *RemoteLoader) pageURL(offset, limit int) (string, error) {
	u, err := url.Parse(l.opts.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("resource_id", l.opts.ResourceID)
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (l *RemoteLoader) fetchPage(ctx context.Context, offset, limit int) (*page, error) {
	endpoint, err := l.pageURL(offset, limit)
	if err != nil {
		return nil, unavailable("endpoint %q: %w", l.opts.BaseURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unavailable("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	l.logger.Debug("[loader] GET %s", endpoint)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, unavailable("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 500 {
			snippet = snippet[:500] + "..."
		}
		return nil, unavailable("%w", &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Message:    snippet,
		})
	}

	return parsePage(body)
}

func parsePage(body []byte) (*page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var env datastoreResponse
	if err := dec.Decode(&env); err != nil {
		return nil, unavailable("malformed JSON: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, unavailable("datastore reported success=false")
	}
	if env.Result == nil || env.Result.Records == nil {
		return nil, unavailable("response has no result.records array")
	}

	p := &page{fields: env.Result.Fields, records: env.Result.Records, total: len(env.Result.Records)}
	if env.Result.Total != nil {
		p.total = *env.Result.Total
	}
	return p, nil
}

// columnsOf prefers the declared field list and falls back to the keys of
// the first record.
func columnsOf(p *page) []string {
	var cols []string
	if len(p.fields) > 0 {
		for _, f := range p.fields {
			if f.ID != recordIDField {
				cols = append(cols, columnKey(f.ID))
			}
		}
		return cols
	}
	if len(p.records) == 0 {
		return cols
	}
	for k := range p.records[0] {
		if k != recordIDField {
			cols = append(cols, columnKey(k))
		}
	}
	sort.Strings(cols)
	return cols
}

func toRaw(rec map[string]any) models.RawTransaction {
	r := make(models.RawTransaction, len(rec))
	for k, v := range rec {
		if k == recordIDField {
			continue
		}
		r[columnKey(k)] = stringify(v)
	}
	return r
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
