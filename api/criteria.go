package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"hdb-resale/models"
)

// criteriaRequest is FilterCriteria with optional lease bounds. Absent
// bounds default to the dataset's range; an absent max_price stays 0.
type criteriaRequest struct {
	Towns        []string `json:"towns"`
	FlatTypes    []string `json:"flat_types"`
	StoreyRanges []string `json:"storey_ranges"`
	MaxPrice     float64  `json:"max_price"`
	LeaseYearMin *int64   `json:"lease_year_min"`
	LeaseYearMax *int64   `json:"lease_year_max"`
}

func (c criteriaRequest) resolve(opts models.FilterOptions) models.FilterCriteria {
	out := models.FilterCriteria{
		Towns:        c.Towns,
		FlatTypes:    c.FlatTypes,
		StoreyRanges: c.StoreyRanges,
		MaxPrice:     c.MaxPrice,
		LeaseYearMin: opts.LeaseYearMin,
		LeaseYearMax: opts.LeaseYearMax,
	}
	if c.LeaseYearMin != nil {
		out.LeaseYearMin = *c.LeaseYearMin
	}
	if c.LeaseYearMax != nil {
		out.LeaseYearMax = *c.LeaseYearMax
	}
	return out
}

func criteriaFromRequest(r *http.Request) (criteriaRequest, error) {
	if r.Method == http.MethodPost {
		return criteriaFromJSON(r.Body)
	}
	return criteriaFromQuery(r.URL.Query())
}

func criteriaFromJSON(body io.Reader) (criteriaRequest, error) {
	var c criteriaRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("invalid criteria body: %w", err)
	}
	return c, nil
}

func criteriaFromQuery(q url.Values) (criteriaRequest, error) {
	c := criteriaRequest{
		Towns:        q["town"],
		FlatTypes:    q["flat_type"],
		StoreyRanges: q["storey_range"],
	}

	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("invalid max_price %q", v)
		}
		c.MaxPrice = f
	}

	for _, p := range []struct {
		name string
		dst  **int64
	}{
		{"lease_year_min", &c.LeaseYearMin},
		{"lease_year_max", &c.LeaseYearMax},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("invalid %s %q", p.name, v)
		}
		*p.dst = &n
	}
	return c, nil
}
