package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hdb-resale/models"
)

const maxPriceHelp = "budget in SGD, inclusive; the default of 0 matches nothing until raised"

// criteriaFile mirrors FilterCriteria with optional lease bounds.
type criteriaFile struct {
	Towns        []string `yaml:"towns"`
	FlatTypes    []string `yaml:"flat_types"`
	StoreyRanges []string `yaml:"storey_ranges"`
	MaxPrice     float64  `yaml:"max_price"`
	LeaseYearMin *int64   `yaml:"lease_year_min"`
	LeaseYearMax *int64   `yaml:"lease_year_max"`
}

func addCriteriaFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("criteria", "", "YAML file with towns, flat_types, storey_ranges, max_price, lease_year_min, lease_year_max")
	f.StringSlice("town", nil, "town to include (repeatable)")
	f.StringSlice("flat-type", nil, "flat type to include (repeatable)")
	f.StringSlice("storey-range", nil, "storey range to include (repeatable)")
	f.Float64("max-price", 0, maxPriceHelp)
	f.Int64("lease-min", 0, "earliest lease commence year (default: dataset minimum)")
	f.Int64("lease-max", 0, "latest lease commence year (default: dataset maximum)")
}

func readCriteriaFile(path string) (criteriaFile, error) {
	var cf criteriaFile
	data, err := os.ReadFile(path)
	if err != nil {
		return cf, fmt.Errorf("read criteria: %w", err)
	}
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return cf, fmt.Errorf("parse criteria %q: %w", path, err)
	}
	return cf, nil
}

// criteriaFromFlags starts from the YAML file, if any, lets changed flags
// override it, and fills absent lease bounds from opts.
func criteriaFromFlags(cmd *cobra.Command, opts models.FilterOptions) (models.FilterCriteria, error) {
	f := cmd.Flags()

	var cf criteriaFile
	if path, _ := f.GetString("criteria"); path != "" {
		var err error
		if cf, err = readCriteriaFile(path); err != nil {
			return models.FilterCriteria{}, err
		}
	}

	if f.Changed("town") {
		cf.Towns, _ = f.GetStringSlice("town")
	}
	if f.Changed("flat-type") {
		cf.FlatTypes, _ = f.GetStringSlice("flat-type")
	}
	if f.Changed("storey-range") {
		cf.StoreyRanges, _ = f.GetStringSlice("storey-range")
	}
	if f.Changed("max-price") {
		cf.MaxPrice, _ = f.GetFloat64("max-price")
	}
	if f.Changed("lease-min") {
		v, _ := f.GetInt64("lease-min")
		cf.LeaseYearMin = &v
	}
	if f.Changed("lease-max") {
		v, _ := f.GetInt64("lease-max")
		cf.LeaseYearMax = &v
	}

	c := models.FilterCriteria{
		Towns:        cf.Towns,
		FlatTypes:    cf.FlatTypes,
		StoreyRanges: cf.StoreyRanges,
		MaxPrice:     cf.MaxPrice,
		LeaseYearMin: opts.LeaseYearMin,
		LeaseYearMax: opts.LeaseYearMax,
	}
	if cf.LeaseYearMin != nil {
		c.LeaseYearMin = *cf.LeaseYearMin
	}
	if cf.LeaseYearMax != nil {
		c.LeaseYearMax = *cf.LeaseYearMax
	}
	return c, nil
}
