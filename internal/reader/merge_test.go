package reader

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLines map[string][]string

func (m memoryLines) ReadLines(_ context.Context, _, fileName string) ([]string, error) {
	lines, ok := m[fileName]
	if !ok {
		return nil, errors.Wrap(ErrFileNotFound, fileName)
	}
	return lines, nil
}

func TestReadAndMerge_SegmentsWithAdjustments(t *testing.T) {
	src := memoryLines{
		"old.csv": {"A,1950-01-01,10", "A,1950-01-02,20", "A,1950-01-03,30"},
		"new.csv": {"B,1950-01-03,7", "B,1950-01-04,8"},
	}
	segments := []FileSegment{
		{FileName: "old.csv", Station: "A", EndDate: ptrDate(1950, 1, 2), Adjustment: &ValueAdjustment{Operation: AdjustDivide, Amount: 10}},
		{FileName: "new.csv", Station: "B", Adjustment: &ValueAdjustment{Operation: AdjustAdd, Amount: 0.5}},
	}

	res, err := ReadAndMerge(context.Background(), src, "", segments, dailyOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"1950-01-01", "1950-01-02", "1950-01-03", "1950-01-04"}, dates(res.Records))
	assert.Equal(t, 1.0, *res.Records[0].Value)
	assert.Equal(t, 2.0, *res.Records[1].Value)
	assert.Equal(t, 7.5, *res.Records[2].Value)
	assert.Equal(t, 8.5, *res.Records[3].Value)
}

func TestReadAndMerge_FillsGapBetweenSegments(t *testing.T) {
	src := memoryLines{
		"old.csv": {"A,1950-01-01,1", "A,1950-01-02,2"},
		"new.csv": {"A,1950-01-05,5"},
	}
	segments := []FileSegment{{FileName: "old.csv"}, {FileName: "new.csv"}}

	res, err := ReadAndMerge(context.Background(), src, "", segments, dailyOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"1950-01-01", "1950-01-02", "1950-01-03", "1950-01-04", "1950-01-05"}, dates(res.Records))
	assert.Nil(t, res.Records[2].Value)
	assert.Nil(t, res.Records[3].Value)
	assert.Equal(t, 2, res.FillerRecords)
}

func TestReadAndMerge_CollisionIsFatal(t *testing.T) {
	src := memoryLines{
		"a.csv": {"A,1950-01-01,1", "A,1950-01-02,2"},
		"b.csv": {"A,1950-01-02,3"},
	}
	segments := []FileSegment{{FileName: "a.csv"}, {FileName: "b.csv"}}

	_, err := ReadAndMerge(context.Background(), src, "", segments, dailyOptions())
	require.Error(t, err)

	var collision *MergeCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "1950-01-02", collision.Key.String())
	assert.Equal(t, "b.csv", collision.Segment)
}

func TestReadAndMerge_MissingFile(t *testing.T) {
	_, err := ReadAndMerge(context.Background(), memoryLines{}, "", []FileSegment{{FileName: "gone.csv"}}, dailyOptions())
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestReadAndMerge_BadAdjustment(t *testing.T) {
	src := memoryLines{"a.csv": {"A,1950-01-01,1"}}
	segments := []FileSegment{{FileName: "a.csv", Adjustment: &ValueAdjustment{Operation: AdjustDivide}}}

	_, err := ReadAndMerge(context.Background(), src, "", segments, dailyOptions())
	assert.Error(t, err)
}

func TestReadAndMerge_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadAndMerge(ctx, memoryLines{"a.csv": {"A,1950-01-01,1"}}, "", []FileSegment{{FileName: "a.csv"}}, dailyOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValueAdjustment_NullStaysNull(t *testing.T) {
	adj := ValueAdjustment{Operation: AdjustAdd, Amount: 1}
	assert.Nil(t, adj.Apply(nil))
}
