package binning

import (
	"time"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

// Cup is the finest grouping unit: the records of one fixed sub-span of a
// bin plus the number of records that span should hold
type Cup struct {
	FirstDay           time.Time
	LastDay            time.Time
	Records            []models.DataRecord
	ExpectedDataPoints int
}

// DaysCovered is the calendar length of the cup, used as its aggregation weight
func (c Cup) DaysCovered() int {
	return dateutil.DaysInSpan(c.FirstDay, c.LastDay)
}

// PresentDataPoints counts records with a non-null value
func (c Cup) PresentDataPoints() int {
	n := 0
	for _, r := range c.Records {
		if r.HasValue() {
			n++
		}
	}
	return n
}

// DataProportion is present / expected, zero for a cup expecting nothing
func (c Cup) DataProportion() float64 {
	if c.ExpectedDataPoints <= 0 {
		return 0
	}
	return float64(c.PresentDataPoints()) / float64(c.ExpectedDataPoints)
}

// Bucket groups cups. Every bucket currently holds exactly one cup.
type Bucket struct {
	Cups []Cup
}

// DaysCovered sums the calendar length of the bucket's cups
func (b Bucket) DaysCovered() int {
	days := 0
	for _, c := range b.Cups {
		days += c.DaysCovered()
	}
	return days
}

// RawBin is a bin before aggregation
type RawBin struct {
	Identifier BinIdentifier
	Buckets    []Bucket
}

// Cups returns every cup of the bin in order
func (b RawBin) Cups() []Cup {
	var cups []Cup
	for _, bucket := range b.Buckets {
		cups = append(cups, bucket.Cups...)
	}
	return cups
}

// Records flattens all records held by the bin
func (b RawBin) Records() []models.DataRecord {
	var records []models.DataRecord
	for _, bucket := range b.Buckets {
		for _, cup := range bucket.Cups {
			records = append(records, cup.Records...)
		}
	}
	return records
}

// Bin is an aggregated bin. A nil Value means no data.
type Bin struct {
	Identifier BinIdentifier
	Value      *float64
}
