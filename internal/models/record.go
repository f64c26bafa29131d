package models

import (
	"fmt"
	"time"
)

// DataResolution is the sampling period of a series
type DataResolution string

const (
	Daily   DataResolution = "daily"
	Weekly  DataResolution = "weekly"
	Monthly DataResolution = "monthly"
	Yearly  DataResolution = "yearly"
)

// ParseDataResolution converts a catalog/request string into a DataResolution
func ParseDataResolution(s string) (DataResolution, error) {
	switch DataResolution(s) {
	case Daily, Weekly, Monthly, Yearly:
		return DataResolution(s), nil
	}
	return "", &ValidationError{
		Field:   "resolution",
		Value:   s,
		Message: fmt.Sprintf("unknown data resolution %q", s),
	}
}

// DataRecord is a single dated sample of a series.
// Month and Day are zero when the record is coarser than monthly/daily.
// NULL values are represented as a nil Value.
type DataRecord struct {
	Year  int      `json:"year" db:"year"`
	Month int      `json:"month,omitempty" db:"month"`
	Day   int      `json:"day,omitempty" db:"day"`
	Value *float64 `json:"value" db:"value"`
}

// NewDailyRecord creates a record at daily resolution
func NewDailyRecord(year, month, day int, value *float64) DataRecord {
	return DataRecord{Year: year, Month: month, Day: day, Value: value}
}

// NewMonthlyRecord creates a record at monthly resolution
func NewMonthlyRecord(year, month int, value *float64) DataRecord {
	return DataRecord{Year: year, Month: month, Value: value}
}

// NewYearlyRecord creates a record at yearly resolution
func NewYearlyRecord(year int, value *float64) DataRecord {
	return DataRecord{Year: year, Value: value}
}

// Resolution reports the resolution implied by which fields are set
func (r DataRecord) Resolution() DataResolution {
	switch {
	case r.Day != 0:
		return Daily
	case r.Month != 0:
		return Monthly
	default:
		return Yearly
	}
}

// Date returns the calendar date of a daily record.
// ok is false for monthly and yearly records.
func (r DataRecord) Date() (time.Time, bool) {
	if r.Month == 0 || r.Day == 0 {
		return time.Time{}, false
	}
	return time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC), true
}

// PeriodStart returns the first calendar day of the period the record covers
func (r DataRecord) PeriodStart() time.Time {
	month, day := r.Month, r.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(r.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// PeriodEnd returns the last calendar day of the period the record covers
func (r DataRecord) PeriodEnd() time.Time {
	switch {
	case r.Day != 0:
		return r.PeriodStart()
	case r.Month != 0:
		return time.Date(r.Year, time.Month(r.Month)+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(r.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}

// Key returns the (year, month, day) identity of the record
func (r DataRecord) Key() RecordKey {
	return RecordKey{Year: r.Year, Month: r.Month, Day: r.Day}
}

// HasValue reports whether the record carries a non-null value
func (r DataRecord) HasValue() bool {
	return r.Value != nil
}

// WithValue returns a copy of the record holding v
func (r DataRecord) WithValue(v *float64) DataRecord {
	r.Value = v
	return r
}

func (r DataRecord) String() string {
	v := "null"
	if r.Value != nil {
		v = fmt.Sprintf("%g", *r.Value)
	}
	return fmt.Sprintf("%s=%s", r.Key(), v)
}

// RecordKey uniquely identifies a record within one series
type RecordKey struct {
	Year  int
	Month int
	Day   int
}

func (k RecordKey) String() string {
	switch {
	case k.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
	case k.Month != 0:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	default:
		return fmt.Sprintf("%04d", k.Year)
	}
}

// Float returns a pointer to v, for building nullable values
func Float(v float64) *float64 {
	return &v
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
