// Package reader turns provider text lines into an ordered, gap-free
// sequence of dated records.
package reader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

var (
	// ErrWeeklyUnsupported is returned for weekly resolution reads
	ErrWeeklyUnsupported = errors.New("weekly resolution is not supported")

	// ErrNoMatchingLine is returned when no line matches the row pattern
	ErrNoMatchingLine = errors.New("no line matches the row pattern")

	// ErrInvalidPattern is returned when the row pattern lacks a required capture group
	ErrInvalidPattern = errors.New("row pattern is missing a required named group")
)

// Options describes how to read one provider file
type Options struct {
	// RowPattern captures year, month, day and value by name, plus station when filtering
	RowPattern *regexp.Regexp
	NullValue  string
	Resolution models.DataResolution
	Station    string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Warning is a recoverable data integrity problem; the offending line was dropped
type Warning struct {
	LineNumber int
	Line       string
	Reason     string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %q", w.LineNumber, w.Reason, w.Line)
}

// Result is the output of one read
type Result struct {
	Records        []models.DataRecord
	Warnings       []Warning
	FillerRecords  int
	DroppedRecords int
}

type parsedLine struct {
	date  time.Time
	value *float64
}

// ReadRecords scans lines for rows matching opts.RowPattern and returns them
// in order. Periods skipped between two accepted rows are filled with null
// records. Rows that do not advance the date are dropped with a warning.
func ReadRecords(lines []string, opts Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	groups := groupIndexes(opts.RowPattern)
	result := &Result{Records: make([]models.DataRecord, 0, len(lines))}

	var (
		matched        bool
		sawBeforeStart bool
		havePrevious   bool
		previous       time.Time
		cursor         time.Time
	)

	for i, line := range lines {
		m := opts.RowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if opts.Station != "" && capture(m, groups, "station") != opts.Station {
			continue
		}
		matched = true

		row, ok, err := parseRow(m, groups, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: %q", i+1, line)
		}
		if !ok {
			result.Warnings = append(result.Warnings, Warning{LineNumber: i + 1, Line: line, Reason: "not a calendar date"})
			result.DroppedRecords++
			continue
		}

		if havePrevious && !row.date.After(previous) {
			reason := "date is before the previous record"
			if row.date.Equal(previous) {
				reason = "duplicate date"
			}
			result.Warnings = append(result.Warnings, Warning{LineNumber: i + 1, Line: line, Reason: reason})
			result.DroppedRecords++
			continue
		}

		if opts.StartDate != nil && row.date.Before(dateutil.Truncate(*opts.StartDate)) {
			sawBeforeStart = true
			continue
		}
		if opts.EndDate != nil && row.date.After(dateutil.Truncate(*opts.EndDate)) {
			continue
		}

		if !havePrevious {
			cursor = row.date
			if sawBeforeStart {
				cursor = firstPeriodOnOrAfter(*opts.StartDate, opts.Resolution)
			}
		}

		for cursor.Before(row.date) {
			result.Records = append(result.Records, recordAt(cursor, opts.Resolution, nil))
			result.FillerRecords++
			cursor = nextPeriod(cursor, opts.Resolution)
		}

		result.Records = append(result.Records, recordAt(row.date, opts.Resolution, row.value))
		previous = row.date
		havePrevious = true
		cursor = nextPeriod(row.date, opts.Resolution)
	}

	if !matched {
		return nil, errors.Wrapf(ErrNoMatchingLine, "%d lines scanned with %s", len(lines), opts.RowPattern)
	}
	return result, nil
}

func validateOptions(opts Options) error {
	if opts.RowPattern == nil {
		return errors.Wrap(ErrInvalidPattern, "row pattern is nil")
	}

	required := []string{"year", "value"}
	switch opts.Resolution {
	case models.Daily:
		required = append(required, "month", "day")
	case models.Monthly:
		required = append(required, "month")
	case models.Yearly:
	case models.Weekly:
		return ErrWeeklyUnsupported
	default:
		return errors.Errorf("unknown resolution %q", opts.Resolution)
	}
	if opts.Station != "" {
		required = append(required, "station")
	}

	names := groupIndexes(opts.RowPattern)
	for _, name := range required {
		if _, ok := names[name]; !ok {
			return errors.Wrapf(ErrInvalidPattern, "%q", name)
		}
	}
	return nil
}

func groupIndexes(re *regexp.Regexp) map[string]int {
	idx := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}

func capture(m []string, groups map[string]int, name string) string {
	i, ok := groups[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(m[i])
}

// parseRow returns ok=false when the captured fields are not a real calendar date
func parseRow(m []string, groups map[string]int, opts Options) (parsedLine, bool, error) {
	year, err := strconv.Atoi(capture(m, groups, "year"))
	if err != nil {
		return parsedLine{}, false, errors.Wrap(err, "year")
	}

	month, day := 1, 1
	if opts.Resolution != models.Yearly {
		if month, err = strconv.Atoi(capture(m, groups, "month")); err != nil {
			return parsedLine{}, false, errors.Wrap(err, "month")
		}
	}
	if opts.Resolution == models.Daily {
		if day, err = strconv.Atoi(capture(m, groups, "day")); err != nil {
			return parsedLine{}, false, errors.Wrap(err, "day")
		}
	}

	var date time.Time
	switch opts.Resolution {
	case models.Yearly:
		date = dateutil.Date(year, 12, 31)
	default:
		date = dateutil.Date(year, month, day)
		if int(date.Month()) != month || date.Day() != day {
			return parsedLine{}, false, nil
		}
	}

	raw := capture(m, groups, "value")
	if raw == "" || raw == opts.NullValue {
		return parsedLine{date: date}, true, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return parsedLine{}, false, errors.Wrap(err, "value")
	}
	return parsedLine{date: date, value: &v}, true, nil
}

// recordAt builds a record for the period whose ordering date is d.
// Yearly periods are ordered by 31 December.
func recordAt(d time.Time, resolution models.DataResolution, value *float64) models.DataRecord {
	switch resolution {
	case models.Monthly:
		return models.NewMonthlyRecord(d.Year(), int(d.Month()), value)
	case models.Yearly:
		return models.NewYearlyRecord(d.Year(), value)
	}
	return models.NewDailyRecord(d.Year(), int(d.Month()), d.Day(), value)
}

func nextPeriod(d time.Time, resolution models.DataResolution) time.Time {
	switch resolution {
	case models.Monthly:
		return d.AddDate(0, 1, 0)
	case models.Yearly:
		return d.AddDate(1, 0, 0)
	}
	return d.AddDate(0, 0, 1)
}

func firstPeriodOnOrAfter(start time.Time, resolution models.DataResolution) time.Time {
	start = dateutil.Truncate(start)
	switch resolution {
	case models.Monthly:
		first := dateutil.Date(start.Year(), int(start.Month()), 1)
		if first.Before(start) {
			first = first.AddDate(0, 1, 0)
		}
		return first
	case models.Yearly:
		return dateutil.Date(start.Year(), 12, 31)
	}
	return start
}
