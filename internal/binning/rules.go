package binning

import (
	"fmt"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

// BinGranularity selects how records are grouped into bins
type BinGranularity string

const (
	ByYear                                  BinGranularity = "ByYear"
	ByYearAndMonth                          BinGranularity = "ByYearAndMonth"
	ByMonthOnly                             BinGranularity = "ByMonthOnly"
	BySouthernHemisphereTemperateSeasonOnly BinGranularity = "BySouthernHemisphereTemperateSeasonOnly"
	BySouthernHemisphereTropicalSeasonOnly  BinGranularity = "BySouthernHemisphereTropicalSeasonOnly"
)

// IsGapless reports whether bins of this granularity cover one contiguous calendar span
func (g BinGranularity) IsGapless() bool {
	return g == ByYear || g == ByYearAndMonth
}

// Validate fails for unknown granularities
func (g BinGranularity) Validate() error {
	switch g {
	case ByYear, ByYearAndMonth, ByMonthOnly,
		BySouthernHemisphereTemperateSeasonOnly, BySouthernHemisphereTropicalSeasonOnly:
		return nil
	}
	return configError("binning rule", ErrUnsupportedRule, "%q", string(g))
}

// IdentifierFor computes the bin a record belongs to under this granularity
func (g BinGranularity) IdentifierFor(r models.DataRecord) (BinIdentifier, error) {
	if g != ByYear && r.Month == 0 {
		return BinIdentifier{}, configError("binning rule", ErrUnsupportedRule,
			"%s needs monthly or daily records, got %s", g, r.Key())
	}

	switch g {
	case ByYear:
		return YearBin(r.Year), nil
	case ByYearAndMonth:
		return YearAndMonthBin(r.Year, r.Month)
	case ByMonthOnly:
		return MonthOnlyBin(r.Month)
	case BySouthernHemisphereTemperateSeasonOnly:
		season, err := dateutil.GetTemperateSeasonForMonth(r.Month)
		if err != nil {
			return BinIdentifier{}, err
		}
		return SeasonOnlyBin(season)
	case BySouthernHemisphereTropicalSeasonOnly:
		season, err := dateutil.GetTropicalSeasonForMonth(r.Month)
		if err != nil {
			return BinIdentifier{}, err
		}
		return SeasonOnlyBin(season)
	}
	return BinIdentifier{}, configError("binning rule", ErrUnsupportedRule, "%q", string(g))
}

// AggregationFunction is applied at the bin, bucket and cup levels
type AggregationFunction string

const (
	Mean   AggregationFunction = "Mean"
	Sum    AggregationFunction = "Sum"
	Min    AggregationFunction = "Min"
	Max    AggregationFunction = "Max"
	Median AggregationFunction = "Median"
)

// Validate fails for unknown aggregation functions
func (f AggregationFunction) Validate() error {
	switch f {
	case Mean, Sum, Min, Max, Median:
		return nil
	}
	return configError("aggregation function", ErrUnsupportedAggregation, "%q", string(f))
}

// IsRepeatable reports whether aggregating sub-aggregates gives the same
// answer as aggregating the flattened values
func (f AggregationFunction) IsRepeatable() bool {
	return f != Median
}

func (f AggregationFunction) String() string {
	return string(f)
}

// ParseAggregationFunction converts a request value to an AggregationFunction
func ParseAggregationFunction(s string) (AggregationFunction, error) {
	f := AggregationFunction(s)
	if err := f.Validate(); err != nil {
		return "", err
	}
	return f, nil
}

// ParseBinGranularity converts a request value to a BinGranularity
func ParseBinGranularity(s string) (BinGranularity, error) {
	g := BinGranularity(s)
	if err := g.Validate(); err != nil {
		return "", fmt.Errorf("parse binning rule: %w", err)
	}
	return g, nil
}
