package services

import (
	"hdb-resale/models"
	"hdb-resale/utils"
)

// Pipeline filters a Dataset and derives the aggregate views. It holds no
// state between calls and may be used concurrently over the same Dataset.
type Pipeline struct {
	logger *utils.Logger
}

// NewPipeline creates a Pipeline with the given logger.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Apply returns the records of ds satisfying every criterion, in dataset
// order, together with the aggregate views over that subset.
func (p *Pipeline) Apply(ds *models.Dataset, c models.FilterCriteria) models.FilteredResult {
	subset := Filter(ds, c)

	result := models.FilteredResult{
		Subset:               subset,
		AvgPriceByTown:       avgPriceByTown(subset),
		AvgPriceByMonth:      avgPriceByMonth(subset),
		FlatTypeDistribution: flatTypeDistribution(subset),
		AvgPriceByStorey:     avgPriceByStorey(subset),
		AvgPriceByLeaseYear:  avgPriceByLeaseYear(subset),
	}
	if ds != nil && ds.HasGeo() {
		result.Geo = geoProjection(subset)
	}

	p.logger.Debug("[pipeline] %d of %d records matched", len(subset), ds.Len())
	return result
}

// Filter returns a new slice of the records matching c. A missing value
// never satisfies an active predicate.
func Filter(ds *models.Dataset, c models.FilterCriteria) []models.Transaction {
	subset := make([]models.Transaction, 0)
	if ds == nil {
		return subset
	}

	towns := toSet(c.Towns)
	flatTypes := toSet(c.FlatTypes)
	storeys := toSet(c.StoreyRanges)

	for _, t := range ds.Records {
		if towns != nil && !member(towns, t.Town) {
			continue
		}
		if flatTypes != nil && !member(flatTypes, t.FlatType) {
			continue
		}
		if storeys != nil && !member(storeys, t.StoreyRange) {
			continue
		}
		if !t.ResalePrice.Valid || t.ResalePrice.Float64 > c.MaxPrice {
			continue
		}
		if !t.LeaseCommenceDate.Valid ||
			t.LeaseCommenceDate.Int64 < c.LeaseYearMin ||
			t.LeaseCommenceDate.Int64 > c.LeaseYearMax {
			continue
		}
		subset = append(subset, t)
	}
	return subset
}

// toSet returns nil for an empty selection, meaning "no restriction".
func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func member(set map[string]struct{}, v string) bool {
	if v == "" {
		return false
	}
	_, ok := set[v]
	return ok
}

func geoProjection(subset []models.Transaction) *models.GeoProjection {
	points := make([]models.GeoPoint, 0, len(subset))
	for _, t := range subset {
		if !t.Latitude.Valid || !t.Longitude.Valid {
			continue
		}
		points = append(points, models.GeoPoint{Latitude: t.Latitude.Float64, Longitude: t.Longitude.Float64})
	}
	return &models.GeoProjection{Points: points}
}
