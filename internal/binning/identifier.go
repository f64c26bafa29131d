package binning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"climate-platform/internal/dateutil"
)

// BinKind enumerates the closed set of bin identifier variants
type BinKind int

const (
	KindYear BinKind = iota + 1
	KindYearAndMonth
	KindMonthOnly
	KindSeasonOnly
)

func (k BinKind) String() string {
	switch k {
	case KindYear:
		return "Year"
	case KindYearAndMonth:
		return "YearAndMonth"
	case KindMonthOnly:
		return "MonthOnly"
	case KindSeasonOnly:
		return "SeasonOnly"
	}
	return fmt.Sprintf("BinKind(%d)", int(k))
}

// BinIdentifier is an immutable bin key. Two identifiers are equal exactly
// when their ID strings match, which for this struct is plain ==.
type BinIdentifier struct {
	kind   BinKind
	year   int
	month  int
	season dateutil.Season
}

// YearBin identifies the calendar year Jan 1 - Dec 31
func YearBin(year int) BinIdentifier {
	return BinIdentifier{kind: KindYear, year: year}
}

// YearAndMonthBin identifies one calendar month of one year
func YearAndMonthBin(year, month int) (BinIdentifier, error) {
	if month < 1 || month > 12 {
		return BinIdentifier{}, fmt.Errorf("%w: %d", dateutil.ErrInvalidMonth, month)
	}
	return BinIdentifier{kind: KindYearAndMonth, year: year, month: month}, nil
}

// MonthOnlyBin identifies one calendar month across all years
func MonthOnlyBin(month int) (BinIdentifier, error) {
	if month < 1 || month > 12 {
		return BinIdentifier{}, fmt.Errorf("%w: %d", dateutil.ErrInvalidMonth, month)
	}
	return BinIdentifier{kind: KindMonthOnly, month: month}, nil
}

// SeasonOnlyBin identifies one temperate or tropical season across all years
func SeasonOnlyBin(season dateutil.Season) (BinIdentifier, error) {
	if !season.IsTemperate() && !season.IsTropical() {
		return BinIdentifier{}, fmt.Errorf("unknown season %d", int(season))
	}
	return BinIdentifier{kind: KindSeasonOnly, season: season}, nil
}

func (b BinIdentifier) Kind() BinKind { return b.kind }
func (b BinIdentifier) Year() int { return b.year }
func (b BinIdentifier) Month() int { return b.month }
func (b BinIdentifier) Season() dateutil.Season { return b.season }
func (b BinIdentifier) IsZero() bool { return b.kind == 0 }
func (b BinIdentifier) String() string { return b.ID() }

// IsGapless reports whether the bin covers one known, contiguous calendar span
func (b BinIdentifier) IsGapless() bool {
	return b.kind == KindYear || b.kind == KindYearAndMonth
}

// ID returns the canonical string form
func (b BinIdentifier) ID() string {
	switch b.kind {
	case KindYear:
		return fmt.Sprintf("y%d", b.year)
	case KindYearAndMonth:
		return fmt.Sprintf("y%dm%02d", b.year, b.month)
	case KindMonthOnly:
		return fmt.Sprintf("m%d", b.month)
	case KindSeasonOnly:
		return "s" + strings.ToLower(b.season.String())
	}
	return ""
}

// Label returns the human readable form
func (b BinIdentifier) Label() string {
	switch b.kind {
	case KindYear:
		return strconv.Itoa(b.year)
	case KindYearAndMonth:
		name, _ := dateutil.ShortMonthName(b.month)
		return fmt.Sprintf("%s %d", name, b.year)
	case KindMonthOnly:
		name, _ := dateutil.ShortMonthName(b.month)
		return name
	case KindSeasonOnly:
		return b.season.String()
	}
	return ""
}

// Span returns the first and last day in a gapless bin
func (b BinIdentifier) Span() (dateutil.DateSpan, error) {
	switch b.kind {
	case KindYear:
		return dateutil.DateSpan{
			Start: dateutil.Date(b.year, 1, 1),
			End:   dateutil.Date(b.year, 12, 31),
		}, nil
	case KindYearAndMonth:
		return dateutil.DateSpan{
			Start: dateutil.Date(b.year, b.month, 1),
			End:   dateutil.Date(b.year, b.month, dateutil.GetLastDayInMonth(b.year, b.month)),
		}, nil
	}
	return dateutil.DateSpan{}, fmt.Errorf("%w: %s", ErrNotGapless, b.ID())
}

// CompareTo orders b relative to other: -1, 0 or 1.
// Gapless identifiers compare by first day; month-only identifiers compare by
// month. Every other pairing is undefined and returns ErrIncompatibleIdentifiers.
func (b BinIdentifier) CompareTo(other BinIdentifier) (int, error) {
	switch {
	case b.IsGapless() && other.IsGapless():
		bs, _ := b.Span()
		otherSpan, _ := other.Span()
		return bs.Start.Compare(otherSpan.Start), nil
	case b.kind == KindMonthOnly && other.kind == KindMonthOnly:
		return compareInts(b.month, other.month), nil
	}
	return 0, configError("compare bin identifiers", ErrIncompatibleIdentifiers, "%s vs %s", b.kind, other.kind)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Parse reconstructs an identifier from its canonical ID
func Parse(id string) (BinIdentifier, error) {
	b, err := parse(id)
	if err == nil && b.ID() != id {
		err = fmt.Errorf("not canonical, expected %q", b.ID())
	}
	if err != nil {
		return BinIdentifier{}, &ParseError{Input: id, Err: err}
	}
	return b, nil
}

func parse(id string) (BinIdentifier, error) {
	if id == "" {
		return BinIdentifier{}, errors.New("identifier is empty")
	}

	rest := id[1:]
	switch id[0] {
	case 'y':
		yearPart, monthPart, hasMonth := strings.Cut(rest, "m")
		year, err := strconv.Atoi(yearPart)
		if err != nil {
			return BinIdentifier{}, fmt.Errorf("year: %w", err)
		}
		if !hasMonth {
			return YearBin(year), nil
		}
		month, err := strconv.Atoi(monthPart)
		if err != nil {
			return BinIdentifier{}, fmt.Errorf("month: %w", err)
		}
		return YearAndMonthBin(year, month)
	case 'm':
		month, err := strconv.Atoi(rest)
		if err != nil {
			return BinIdentifier{}, fmt.Errorf("month: %w", err)
		}
		return MonthOnlyBin(month)
	case 's':
		if rest == "" {
			return BinIdentifier{}, errors.New("season is empty")
		}
		season, err := dateutil.ParseSeason(strings.ToUpper(rest[:1]) + rest[1:])
		if err != nil {
			return BinIdentifier{}, err
		}
		return SeasonOnlyBin(season)
	}
	return BinIdentifier{}, fmt.Errorf("unknown identifier prefix %q", id[:1])
}

// EnumerateBinsInRange lists every identifier from start to end inclusive.
// Both ends must be year identifiers or both year-and-month identifiers.
func EnumerateBinsInRange(start, end BinIdentifier) ([]BinIdentifier, error) {
	switch {
	case start.kind == KindYear && end.kind == KindYear:
		ids := make([]BinIdentifier, 0, max(end.year-start.year+1, 0))
		for y := start.year; y <= end.year; y++ {
			ids = append(ids, YearBin(y))
		}
		return ids, nil
	case start.kind == KindYearAndMonth && end.kind == KindYearAndMonth:
		return EnumerateYearAndMonthBinRangeUpTo(start, end), nil
	}
	return nil, configError("enumerate bins", ErrIncompatibleIdentifiers, "%s to %s", start.kind, end.kind)
}

// EnumerateYearAndMonthBinRangeUpTo lists every month from start to end
// inclusive, rolling over year boundaries
func EnumerateYearAndMonthBinRangeUpTo(start, end BinIdentifier) []BinIdentifier {
	var ids []BinIdentifier
	year, month := start.year, start.month
	for year < end.year || (year == end.year && month <= end.month) {
		ids = append(ids, BinIdentifier{kind: KindYearAndMonth, year: year, month: month})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return ids
}

// lessForOrdering orders identifiers of one granularity for output. Seasons
// have no CompareTo ordering, so they follow the season enum order.
func lessForOrdering(a, b BinIdentifier) (bool, error) {
	if a.kind == KindSeasonOnly && b.kind == KindSeasonOnly {
		return a.season < b.season, nil
	}
	c, err := a.CompareTo(b)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}
