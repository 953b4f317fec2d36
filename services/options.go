package services

import "hdb-resale/models"

// Options lists the distinct categories of ds in first-appearance order
// and the range of lease commence years.
func Options(ds *models.Dataset) models.FilterOptions {
	opts := models.FilterOptions{
		Towns:        []string{},
		FlatTypes:    []string{},
		StoreyRanges: []string{},
	}
	if ds == nil {
		return opts
	}

	towns := make(map[string]struct{})
	flatTypes := make(map[string]struct{})
	storeys := make(map[string]struct{})
	haveYear := false

	for _, t := range ds.Records {
		opts.Towns = appendDistinct(opts.Towns, towns, t.Town)
		opts.FlatTypes = appendDistinct(opts.FlatTypes, flatTypes, t.FlatType)
		opts.StoreyRanges = appendDistinct(opts.StoreyRanges, storeys, t.StoreyRange)

		if !t.LeaseCommenceDate.Valid {
			continue
		}
		y := t.LeaseCommenceDate.Int64
		if !haveYear || y < opts.LeaseYearMin {
			opts.LeaseYearMin = y
		}
		if !haveYear || y > opts.LeaseYearMax {
			opts.LeaseYearMax = y
		}
		haveYear = true
	}
	return opts
}

func appendDistinct(list []string, seen map[string]struct{}, v string) []string {
	if v == "" {
		return list
	}
	if _, ok := seen[v]; ok {
		return list
	}
	seen[v] = struct{}{}
	return append(list, v)
}

// DefaultCriteria is what a fresh session starts with: nothing selected,
// the full lease range, and a budget of 0. With a zero budget only
// records priced at 0 or less match, so results stay empty until the
// caller raises MaxPrice.
func DefaultCriteria(opts models.FilterOptions) models.FilterCriteria {
	return models.FilterCriteria{
		Towns:        []string{},
		FlatTypes:    []string{},
		StoreyRanges: []string{},
		MaxPrice:     0,
		LeaseYearMin: opts.LeaseYearMin,
		LeaseYearMax: opts.LeaseYearMax,
	}
}
