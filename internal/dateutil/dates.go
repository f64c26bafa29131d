// Package dateutil holds the calendar arithmetic shared by the reader and
// the binning engine. All dates are UTC midnights.
package dateutil

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSegmentSize is returned when a span is divided into non-positive segments
var ErrInvalidSegmentSize = errors.New("segment size must be at least one day")

// ErrInvalidMonth is returned for month numbers outside 1..12
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

var shortMonthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Date builds a UTC calendar date
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day and location of t
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), int(t.Month()), t.Day())
}

// GetLastDayInMonth returns the number of the last day of the month.
// Day 28 exists in every month, so the walk starts there and stops on rollover.
func GetLastDayInMonth(year, month int) int {
	day := 28
	for {
		next := Date(year, month, day+1)
		if int(next.Month()) != month {
			return day
		}
		day++
	}
}

// DaysInYear returns 365 or 366
func DaysInYear(year int) int {
	return DaysInSpan(Date(year, 1, 1), Date(year, 12, 31))
}

// DaysInSpan counts the days in [start, end], both inclusive
func DaysInSpan(start, end time.Time) int {
	return int(Truncate(end).Sub(Truncate(start)).Hours()/24) + 1
}

// ShortMonthName returns "Jan".."Dec"
func ShortMonthName(month int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return shortMonthNames[month-1], nil
}

// DateSpan is an inclusive range of calendar days
type DateSpan struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of days covered by the span
func (s DateSpan) Days() int {
	return DaysInSpan(s.Start, s.End)
}

// Contains reports whether d falls inside the span
func (s DateSpan) Contains(d time.Time) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s DateSpan) String() string {
	return s.Start.Format("2006-01-02") + ".." + s.End.Format("2006-01-02")
}

// DivideDateSpanIntoSegments splits [start, end] into consecutive segments of
// segmentSizeDays. When the span does not divide evenly the final segment
// absorbs the leftover days, so it is longer than segmentSizeDays rather than
// followed by a short trailing segment. A span shorter than one segment is
// returned whole.
func DivideDateSpanIntoSegments(start, end time.Time, segmentSizeDays int) ([]DateSpan, error) {
	if segmentSizeDays < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentSize, segmentSizeDays)
	}
	start, end = Truncate(start), Truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("span end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	total := DaysInSpan(start, end)
	count := total / segmentSizeDays
	if count <= 1 {
		return []DateSpan{{Start: start, End: end}}, nil
	}

	segments := make([]DateSpan, 0, count)
	for i := 0; i < count; i++ {
		segStart := start.AddDate(0, 0, i*segmentSizeDays)
		segEnd := segStart.AddDate(0, 0, segmentSizeDays-1)
		if i == count-1 {
			segEnd = end
		}
		segments = append(segments, DateSpan{Start: segStart, End: segEnd})
	}
	return segments, nil
}
