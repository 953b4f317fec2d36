package services

import (
	"sort"
	"strconv"
	"time"

	"hdb-resale/models"
)

// meanAcc accumulates a running mean for one group.
type meanAcc struct {
	sum   float64
	count int
}

type groupedMeans[K comparable] struct {
	order []K
	accs  map[K]*meanAcc
}

func newGroupedMeans[K comparable]() *groupedMeans[K] {
	return &groupedMeans[K]{accs: make(map[K]*meanAcc)}
}

// add ignores records without a price. Groups only come into existence
// through a contributing record, so empty groups are never emitted.
func (g *groupedMeans[K]) add(key K, t models.Transaction) {
	if !t.ResalePrice.Valid {
		return
	}
	acc, ok := g.accs[key]
	if !ok {
		acc = &meanAcc{}
		g.accs[key] = acc
		g.order = append(g.order, key)
	}
	acc.sum += t.ResalePrice.Float64
	acc.count++
}

func (g *groupedMeans[K]) points(label func(K) string) []models.AggregatePoint {
	out := make([]models.AggregatePoint, 0, len(g.order))
	for _, k := range g.order {
		acc := g.accs[k]
		out = append(out, models.AggregatePoint{
			Key:   label(k),
			Value: acc.sum / float64(acc.count),
			Count: acc.count,
		})
	}
	return out
}

func identity(s string) string { return s }

// byValueDesc orders points by value descending, then key ascending.
func byValueDesc(points []models.AggregatePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Key < points[j].Key
	})
}

func avgPriceByTown(subset []models.Transaction) []models.AggregatePoint {
	return avgPriceByCategory(subset, func(t models.Transaction) string { return t.Town })
}

func avgPriceByStorey(subset []models.Transaction) []models.AggregatePoint {
	return avgPriceByCategory(subset, func(t models.Transaction) string { return t.StoreyRange })
}

func avgPriceByCategory(subset []models.Transaction, key func(models.Transaction) string) []models.AggregatePoint {
	g := newGroupedMeans[string]()
	for _, t := range subset {
		if k := key(t); k != "" {
			g.add(k, t)
		}
	}
	points := g.points(identity)
	byValueDesc(points)
	return points
}

// calendarDay drops the time of day so that every spelling of one date
// ("2023-01", "2023-01-01", timestamps on that day) shares a group.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// avgPriceByMonth groups by calendar date. A group is labelled with its day
// when any of its records carried one, so labels stay unique.
func avgPriceByMonth(subset []models.Transaction) []models.AggregatePoint {
	g := newGroupedMeans[time.Time]()
	withDay := make(map[time.Time]bool)
	for _, t := range subset {
		if !t.Month.Valid || !t.ResalePrice.Valid {
			continue
		}
		day := calendarDay(t.Month.Time)
		g.add(day, t)
		if t.MonthHasDay {
			withDay[day] = true
		}
	}
	sort.Slice(g.order, func(i, j int) bool {
		return g.order[i].Before(g.order[j])
	})
	return g.points(func(day time.Time) string {
		if withDay[day] {
			return day.Format("2006-01-02")
		}
		return day.Format("2006-01")
	})
}

func avgPriceByLeaseYear(subset []models.Transaction) []models.AggregatePoint {
	g := newGroupedMeans[int64]()
	for _, t := range subset {
		if t.LeaseCommenceDate.Valid {
			g.add(t.LeaseCommenceDate.Int64, t)
		}
	}
	sort.Slice(g.order, func(i, j int) bool { return g.order[i] < g.order[j] })
	return g.points(func(y int64) string { return strconv.FormatInt(y, 10) })
}

// flatTypeDistribution counts every record with a flat type, priced or not.
func flatTypeDistribution(subset []models.Transaction) []models.AggregatePoint {
	counts := make(map[string]int)
	var order []string
	for _, t := range subset {
		if t.FlatType == "" {
			continue
		}
		if _, ok := counts[t.FlatType]; !ok {
			order = append(order, t.FlatType)
		}
		counts[t.FlatType]++
	}

	points := make([]models.AggregatePoint, 0, len(order))
	for _, k := range order {
		points = append(points, models.AggregatePoint{Key: k, Value: float64(counts[k]), Count: counts[k]})
	}
	byValueDesc(points)
	return points
}
