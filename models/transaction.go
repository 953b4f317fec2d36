package models

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Canonical column names of the HDB resale dataset.
const (
	ColMonth             = "month"
	ColTown              = "town"
	ColFlatType          = "flat_type"
	ColBlock             = "block"
	ColStreetName        = "street_name"
	ColStoreyRange       = "storey_range"
	ColFloorAreaSqm      = "floor_area_sqm"
	ColFlatModel         = "flat_model"
	ColLeaseCommenceDate = "lease_commence_date"
	ColRemainingLease    = "remaining_lease"
	ColResalePrice       = "resale_price"
	ColLatitude          = "latitude"
	ColLongitude         = "longitude"
)

// CanonicalColumns is the column order used for exports.
var CanonicalColumns = []string{
	ColMonth, ColTown, ColFlatType, ColBlock, ColStreetName, ColStoreyRange,
	ColFloorAreaSqm, ColFlatModel, ColLeaseCommenceDate, ColRemainingLease,
	ColResalePrice, ColLatitude, ColLongitude,
}

// RawTransaction holds one row exactly as the source delivered it,
// keyed by column name. Nothing has been parsed yet.
type RawTransaction map[string]string

// Transaction is one coerced resale transaction. Category fields use the
// empty string as their missing marker; coerced fields use the sql.Null*
// Valid flag.
type Transaction struct {
	Month             sql.NullTime
	MonthHasDay       bool
	Town              string
	FlatType          string
	Block             string
	StreetName        string
	StoreyRange       string
	FloorAreaSqm      string
	FlatModel         string
	LeaseCommenceDate sql.NullInt64
	RemainingLease    string
	ResalePrice       sql.NullFloat64
	Latitude          sql.NullFloat64
	Longitude         sql.NullFloat64
}

// Dataset is the full collection of transactions for a session. It is
// never mutated once a loader has returned it.
type Dataset struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Columns  []string
	Records  []Transaction
}

// HasColumn reports whether the source schema carried the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// HasGeo reports whether records expose coordinates.
func (d *Dataset) HasGeo() bool {
	return d.HasColumn(ColLatitude) && d.HasColumn(ColLongitude)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// MonthKey formats the transaction month at the granularity the source
// provided. Returns "" when the month is missing.
func (t Transaction) MonthKey() string {
	if !t.Month.Valid {
		return ""
	}
	if t.MonthHasDay {
		return t.Month.Time.Format("2006-01-02")
	}
	return t.Month.Time.Format("2006-01")
}

// Field returns the string form of the named column, "" when missing.
func (t Transaction) Field(col string) string {
	switch col {
	case ColMonth:
		return t.MonthKey()
	case ColTown:
		return t.Town
	case ColFlatType:
		return t.FlatType
	case ColBlock:
		return t.Block
	case ColStreetName:
		return t.StreetName
	case ColStoreyRange:
		return t.StoreyRange
	case ColFloorAreaSqm:
		return t.FloorAreaSqm
	case ColFlatModel:
		return t.FlatModel
	case ColLeaseCommenceDate:
		if t.LeaseCommenceDate.Valid {
			return strconv.FormatInt(t.LeaseCommenceDate.Int64, 10)
		}
	case ColRemainingLease:
		return t.RemainingLease
	case ColResalePrice:
		return formatFloat(t.ResalePrice)
	case ColLatitude:
		return formatFloat(t.Latitude)
	case ColLongitude:
		return formatFloat(t.Longitude)
	}
	return ""
}

func formatFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}
