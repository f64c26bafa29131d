package binning

import (
	"sort"
	"time"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

// BinningOptions adjusts how records are keyed into bins
type BinningOptions struct {
	// TemperateSeasonYear counts December into the following year under
	// ByYear, and year bins then run from 1 December to 30 November.
	TemperateSeasonYear bool
}

// ApplyBinningRules groups records into bins of the given granularity and
// partitions each bin into buckets of one cup each. Bins are returned in
// ascending order.
//
// Gapless bins of daily records are cut into cups of cupSizeInDays; a partial
// trailing cup is folded into the cup before it. Monthly records get one cup
// per calendar month and yearly records one cup per year, each expecting a
// single record. Month-only and season-only bins hold all their records in a
// single cup.
func ApplyBinningRules(records []models.DataRecord, rule BinGranularity, cupSizeInDays int) ([]RawBin, error) {
	return ApplyBinningRulesWithOptions(records, rule, cupSizeInDays, BinningOptions{})
}

// ApplyBinningRulesWithOptions is ApplyBinningRules with keying adjusted by opts
func ApplyBinningRulesWithOptions(records []models.DataRecord, rule BinGranularity, cupSizeInDays int, opts BinningOptions) ([]RawBin, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if cupSizeInDays < 1 {
		return nil, configError("apply binning rules", ErrInvalidCupSize, "%d", cupSizeInDays)
	}
	if len(records) == 0 {
		return []RawBin{}, nil
	}

	resolution, err := uniformResolution(records)
	if err != nil {
		return nil, err
	}

	order := make([]BinIdentifier, 0)
	grouped := make(map[BinIdentifier][]models.DataRecord)
	for _, r := range records {
		id, err := opts.identifierFor(rule, r)
		if err != nil {
			return nil, err
		}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], r)
	}

	if err := sortIdentifiers(order); err != nil {
		return nil, err
	}

	bins := make([]RawBin, 0, len(order))
	for _, id := range order {
		var buckets []Bucket
		if id.IsGapless() {
			span, err := opts.span(id)
			if err != nil {
				return nil, err
			}
			buckets, err = gaplessBuckets(span, grouped[id], resolution, cupSizeInDays)
			if err != nil {
				return nil, err
			}
		} else {
			buckets = []Bucket{{Cups: []Cup{wholeCup(grouped[id])}}}
		}
		bins = append(bins, RawBin{Identifier: id, Buckets: buckets})
	}
	return bins, nil
}

func (o BinningOptions) identifierFor(rule BinGranularity, r models.DataRecord) (BinIdentifier, error) {
	if o.TemperateSeasonYear && rule == ByYear && r.Month != 0 {
		return YearBin(dateutil.TemperateSeasonYear(r.Year, r.Month)), nil
	}
	return rule.IdentifierFor(r)
}

func (o BinningOptions) span(id BinIdentifier) (dateutil.DateSpan, error) {
	if o.TemperateSeasonYear && id.kind == KindYear {
		return dateutil.DateSpan{
			Start: dateutil.Date(id.year-1, 12, 1),
			End:   dateutil.Date(id.year, 11, 30),
		}, nil
	}
	return id.Span()
}

func uniformResolution(records []models.DataRecord) (models.DataResolution, error) {
	resolution := records[0].Resolution()
	for _, r := range records[1:] {
		if r.Resolution() != resolution {
			return "", configError("apply binning rules", ErrMixedResolution,
				"%s is %s, series is %s", r.Key(), r.Resolution(), resolution)
		}
	}
	return resolution, nil
}

func sortIdentifiers(ids []BinIdentifier) error {
	var sortErr error
	sort.SliceStable(ids, func(i, j int) bool {
		less, err := lessForOrdering(ids[i], ids[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	return sortErr
}

// gaplessBuckets computes every cup boundary before building the cups, so no
// cup is patched after construction
func gaplessBuckets(span dateutil.DateSpan, records []models.DataRecord, resolution models.DataResolution, cupSizeInDays int) ([]Bucket, error) {
	var (
		segments []dateutil.DateSpan
		err      error
	)
	switch resolution {
	case models.Daily:
		segments, err = dateutil.DivideDateSpanIntoSegments(span.Start, span.End, cupSizeInDays)
		if err != nil {
			return nil, err
		}
	case models.Monthly:
		segments = monthSegments(span)
	default:
		segments = []dateutil.DateSpan{span}
	}

	cups := make([]Cup, len(segments))
	for i, seg := range segments {
		expected := 1
		if resolution == models.Daily {
			expected = seg.Days()
		}
		cups[i] = Cup{FirstDay: seg.Start, LastDay: seg.End, ExpectedDataPoints: expected}
	}

	for _, r := range records {
		idx := segmentIndex(segments, r.PeriodStart())
		if idx < 0 {
			continue
		}
		cups[idx].Records = append(cups[idx].Records, r)
	}

	buckets := make([]Bucket, len(cups))
	for i, c := range cups {
		buckets[i] = Bucket{Cups: []Cup{c}}
	}
	return buckets, nil
}

func monthSegments(span dateutil.DateSpan) []dateutil.DateSpan {
	var segments []dateutil.DateSpan
	for d := span.Start; !d.After(span.End); d = d.AddDate(0, 1, 0) {
		last := dateutil.Date(d.Year(), int(d.Month()), dateutil.GetLastDayInMonth(d.Year(), int(d.Month())))
		segments = append(segments, dateutil.DateSpan{Start: d, End: last})
	}
	return segments
}

// segmentIndex finds the segment containing d; segments are ordered and contiguous
func segmentIndex(segments []dateutil.DateSpan, d time.Time) int {
	i := sort.Search(len(segments), func(i int) bool {
		return !segments[i].End.Before(d)
	})
	if i < len(segments) && segments[i].Contains(d) {
		return i
	}
	return -1
}

func wholeCup(records []models.DataRecord) Cup {
	first := records[0].PeriodStart()
	last := first
	for _, r := range records[1:] {
		d := r.PeriodStart()
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return Cup{
		FirstDay:           first,
		LastDay:            last,
		Records:            records,
		ExpectedDataPoints: len(records),
	}
}
