package reader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"climate-platform/internal/models"
)

// AdjustmentOperation is how a segment's values are rescaled before merging
type AdjustmentOperation string

const (
	AdjustAdd    AdjustmentOperation = "add"
	AdjustDivide AdjustmentOperation = "divide"
)

// ValueAdjustment is applied to every non-null value of one segment
type ValueAdjustment struct {
	Operation AdjustmentOperation `yaml:"operation" json:"operation"`
	Amount    float64             `yaml:"amount" json:"amount"`
}

// Validate rejects unknown operations and division by zero
func (a ValueAdjustment) Validate() error {
	switch a.Operation {
	case AdjustAdd:
		return nil
	case AdjustDivide:
		if a.Amount == 0 {
			return errors.New("divide adjustment needs a non-zero amount")
		}
		return nil
	}
	return errors.Errorf("unknown adjustment operation %q", a.Operation)
}

// Apply returns the adjusted value; nil stays nil
func (a ValueAdjustment) Apply(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	switch a.Operation {
	case AdjustAdd:
		out += a.Amount
	case AdjustDivide:
		out /= a.Amount
	}
	return &out
}

// FileSegment is one file contributing a station and date range to a merged series
type FileSegment struct {
	FileName   string
	Station    string
	StartDate  *time.Time
	EndDate    *time.Time
	Adjustment *ValueAdjustment
}

// MergeCollisionError reports two segments producing the same record key
type MergeCollisionError struct {
	Key     models.RecordKey
	Segment string
}

func (e *MergeCollisionError) Error() string {
	return fmt.Sprintf("record %s from %s collides with a record already merged", e.Key, e.Segment)
}

// LineSource provides the raw lines of a named file
type LineSource interface {
	ReadLines(ctx context.Context, archiveName, fileName string) ([]string, error)
}

// MergedResult is the union of every segment read, in date order
type MergedResult struct {
	Records        []models.DataRecord
	Warnings       []Warning
	FillerRecords  int
	DroppedRecords int
}

// ReadAndMerge reads each segment in the given order, applies its adjustment
// and merges the records by key. A key produced twice is fatal.
func ReadAndMerge(ctx context.Context, src LineSource, archiveName string, segments []FileSegment, base Options) (*MergedResult, error) {
	merged := make(map[models.RecordKey]models.DataRecord)
	out := &MergedResult{}

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seg.Adjustment != nil {
			if err := seg.Adjustment.Validate(); err != nil {
				return nil, errors.Wrapf(err, "segment %s", seg.FileName)
			}
		}

		lines, err := src.ReadLines(ctx, archiveName, seg.FileName)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %s", seg.FileName)
		}

		opts := base
		opts.Station = seg.Station
		opts.StartDate = seg.StartDate
		opts.EndDate = seg.EndDate

		res, err := ReadRecords(lines, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %s", seg.FileName)
		}

		for _, r := range res.Records {
			if seg.Adjustment != nil {
				r = r.WithValue(seg.Adjustment.Apply(r.Value))
			}
			key := r.Key()
			if _, exists := merged[key]; exists {
				return nil, &MergeCollisionError{Key: key, Segment: seg.FileName}
			}
			merged[key] = r
		}

		out.Warnings = append(out.Warnings, res.Warnings...)
		out.FillerRecords += res.FillerRecords
		out.DroppedRecords += res.DroppedRecords
	}

	out.Records = make([]models.DataRecord, 0, len(merged))
	for _, r := range merged {
		out.Records = append(out.Records, r)
	}
	sort.Slice(out.Records, func(i, j int) bool {
		return out.Records[i].PeriodStart().Before(out.Records[j].PeriodStart())
	})

	var filled int
	out.Records, filled = fillGaps(out.Records, base.Resolution)
	out.FillerRecords += filled
	return out, nil
}

// fillGaps inserts null records for periods missing between sorted records
func fillGaps(records []models.DataRecord, resolution models.DataResolution) ([]models.DataRecord, int) {
	if len(records) == 0 {
		return records, 0
	}
	out := make([]models.DataRecord, 0, len(records))
	filled := 0
	cursor := records[0].PeriodStart()
	for _, r := range records {
		for start := r.PeriodStart(); cursor.Before(start); cursor = nextPeriod(cursor, resolution) {
			out = append(out, recordAt(cursor, resolution, nil))
			filled++
		}
		out = append(out, r)
		cursor = nextPeriod(r.PeriodStart(), resolution)
	}
	return out, filled
}
