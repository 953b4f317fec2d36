package models

// FilterCriteria is the current set of user-selected constraints.
// Empty category slices impose no restriction. MaxPrice and the lease
// year range are always applied.
type FilterCriteria struct {
	Towns        []string `json:"towns" yaml:"towns"`
	FlatTypes    []string `json:"flat_types" yaml:"flat_types"`
	StoreyRanges []string `json:"storey_ranges" yaml:"storey_ranges"`
	MaxPrice     float64  `json:"max_price" yaml:"max_price"`
	LeaseYearMin int64    `json:"lease_year_min" yaml:"lease_year_min"`
	LeaseYearMax int64    `json:"lease_year_max" yaml:"lease_year_max"`
}

// FilterOptions lists the values a user can pick from for one dataset.
type FilterOptions struct {
	Towns        []string `json:"towns"`
	FlatTypes    []string `json:"flat_types"`
	StoreyRanges []string `json:"storey_ranges"`
	LeaseYearMin int64    `json:"lease_year_min"`
	LeaseYearMax int64    `json:"lease_year_max"`
}
