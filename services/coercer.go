package services

import (
	"database/sql"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"hdb-resale/models"
	"hdb-resale/utils"
)

// monthLayouts are tried in order; the first one carries no day.
var monthLayouts = []string{"2006-01", "2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// Coercer turns RawTransactions into typed Transactions. A value that
// cannot be parsed becomes a missing marker for that field only.
type Coercer struct {
	logger *utils.Logger
}

// NewCoercer creates a Coercer with the given logger.
func NewCoercer(logger *utils.Logger) *Coercer {
	return &Coercer{logger: logger}
}

// Coerce converts every raw row, preserving order. It never drops rows.
func (c *Coercer) Coerce(raw []models.RawTransaction) ([]models.Transaction, models.CoercionReport) {
	report := models.CoercionReport{Records: len(raw), Failures: make(map[string]int)}
	result := make([]models.Transaction, 0, len(raw))

	for _, r := range raw {
		t := models.Transaction{
			Town:           normaliseText(r[models.ColTown]),
			FlatType:       normaliseText(r[models.ColFlatType]),
			Block:          normaliseText(r[models.ColBlock]),
			StreetName:     normaliseText(r[models.ColStreetName]),
			StoreyRange:    normaliseText(r[models.ColStoreyRange]),
			FloorAreaSqm:   normaliseText(r[models.ColFloorAreaSqm]),
			FlatModel:      normaliseText(r[models.ColFlatModel]),
			RemainingLease: normaliseText(r[models.ColRemainingLease]),
		}

		var ok bool
		if t.ResalePrice, ok = parseFloat(r[models.ColResalePrice]); !ok {
			report.Failures[models.ColResalePrice]++
		}
		if t.LeaseCommenceDate, ok = parseYear(r[models.ColLeaseCommenceDate]); !ok {
			report.Failures[models.ColLeaseCommenceDate]++
		}
		if t.Month, t.MonthHasDay, ok = parseMonth(r[models.ColMonth]); !ok {
			report.Failures[models.ColMonth]++
		}
		if _, present := r[models.ColLatitude]; present {
			if t.Latitude, ok = parseFloat(r[models.ColLatitude]); !ok {
				report.Failures[models.ColLatitude]++
			}
		}
		if _, present := r[models.ColLongitude]; present {
			if t.Longitude, ok = parseFloat(r[models.ColLongitude]); !ok {
				report.Failures[models.ColLongitude]++
			}
		}

		result = append(result, t)
	}

	if n := report.Total(); n > 0 {
		cols := make([]string, 0, len(report.Failures))
		for col := range report.Failures {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			c.logger.Warn("[coercer] %d unparseable %s values replaced by missing", report.Failures[col], col)
		}
	}
	c.logger.Debug("[coercer] Coerced %d records (%d field failures)", len(result), report.Total())
	return result, report
}

// naTokens are the values read as missing, matched after trimming.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// isMissing reports whether s is a missing marker. Missing values are not
// coercion failures.
func isMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// parseFloat returns ok=false only when a non-blank value failed to parse.
func parseFloat(raw string) (sql.NullFloat64, bool) {
	if isMissing(raw) {
		return sql.NullFloat64{}, true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}, false
	}
	return sql.NullFloat64{Float64: f, Valid: true}, true
}

// parseYear accepts integral numbers such as "1980" or "1980.0".
func parseYear(raw string) (sql.NullInt64, bool) {
	f, ok := parseFloat(raw)
	if !ok {
		return sql.NullInt64{}, false
	}
	if !f.Valid {
		return sql.NullInt64{}, true
	}
	if f.Float64 != math.Trunc(f.Float64) {
		return sql.NullInt64{}, false
	}
	return sql.NullInt64{Int64: int64(f.Float64), Valid: true}, true
}

// parseMonth keeps the calendar date as written; any time of day is dropped.
func parseMonth(raw string) (sql.NullTime, bool, bool) {
	if isMissing(raw) {
		return sql.NullTime{}, false, true
	}
	s := strings.TrimSpace(raw)
	for i, layout := range monthLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			day := time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC)
			return sql.NullTime{Time: day, Valid: true}, i > 0, true
		}
	}
	return sql.NullTime{}, false, false
}

// normaliseText trims a category value; missing markers become "".
func normaliseText(s string) string {
	if isMissing(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
