package models

// AggregatePoint is one (group key, summary value) pair of an aggregate
// view. Count is the number of records that contributed to Value.
type AggregatePoint struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// GeoPoint is a transaction projected to its coordinates.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoProjection is only present when the dataset carries coordinates.
type GeoProjection struct {
	Points []GeoPoint `json:"points"`
}

// FilteredResult is the output of one pipeline invocation.
type FilteredResult struct {
	Subset               []Transaction    `json:"-"`
	AvgPriceByTown       []AggregatePoint `json:"avg_price_by_town"`
	AvgPriceByMonth      []AggregatePoint `json:"avg_price_by_month"`
	FlatTypeDistribution []AggregatePoint `json:"flat_type_distribution"`
	AvgPriceByStorey     []AggregatePoint `json:"avg_price_by_storey"`
	AvgPriceByLeaseYear  []AggregatePoint `json:"avg_price_by_lease_year"`
	Geo                  *GeoProjection   `json:"geo,omitempty"`
}

// CoercionReport counts, per column, the values that could not be parsed
// and were replaced by a missing marker.
type CoercionReport struct {
	Records  int
	Failures map[string]int
}

// Total returns the number of failed field coercions.
func (r CoercionReport) Total() int {
	n := 0
	for _, c := range r.Failures {
		n += c
	}
	return n
}
