package binning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/dateutil"
)

func TestBinIdentifier_IDAndLabel(t *testing.T) {
	tests := []struct {
		name      string
		id        BinIdentifier
		wantID    string
		wantLabel string
	}{
		{"year", YearBin(1990), "y1990", "1990"},
		{"year and month", mustYearAndMonth(1990, 7), "y1990m07", "Jul 1990"},
		{"month only", mustMonthOnly(3), "m3", "Mar"},
		{"temperate season", mustSeason(dateutil.Summer), "ssummer", "Summer"},
		{"tropical season", mustSeason(dateutil.Dry), "sdry", "Dry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, tt.id.ID())
			assert.Equal(t, tt.wantLabel, tt.id.Label())
		})
	}
}

// TestParse_RoundTrip verifies Parse(x.ID()) == x for every variant
func TestParse_RoundTrip(t *testing.T) {
	ids := []BinIdentifier{
		YearBin(1850),
		YearBin(2024),
		mustYearAndMonth(1920, 1),
		mustYearAndMonth(1999, 12),
		mustMonthOnly(1),
		mustMonthOnly(12),
		mustSeason(dateutil.Summer),
		mustSeason(dateutil.Autumn),
		mustSeason(dateutil.Winter),
		mustSeason(dateutil.Spring),
		mustSeason(dateutil.Wet),
		mustSeason(dateutil.Dry),
	}

	for _, id := range ids {
		parsed, err := Parse(id.ID())
		require.NoError(t, err, id.ID())
		assert.Equal(t, id, parsed, id.ID())
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, input := range []string{"", "x1990", "y", "y19a0", "y1990m", "y1990m13", "m", "m0", "s", "smonsoon",
		"m03", "y1990m7", "y+1990", "y01990", "sSummer"} {
		_, err := Parse(input)
		require.Error(t, err, "%q should not parse", input)

		var perr *ParseError
		require.True(t, errors.As(err, &perr), "%q: error should be a ParseError", input)
		assert.Equal(t, input, perr.Input)
		assert.NotNil(t, perr.Unwrap(), "%q: ParseError should wrap its cause", input)
	}
}

func TestBinIdentifier_Span(t *testing.T) {
	span, err := YearBin(1990).Span()
	require.NoError(t, err)
	assert.Equal(t, dateutil.Date(1990, 1, 1), span.Start)
	assert.Equal(t, dateutil.Date(1990, 12, 31), span.End)

	span, err = mustYearAndMonth(2000, 2).Span()
	require.NoError(t, err)
	assert.Equal(t, dateutil.Date(2000, 2, 29), span.End)

	_, err = mustMonthOnly(2).Span()
	assert.ErrorIs(t, err, ErrNotGapless)
}

func TestBinIdentifier_CompareTo(t *testing.T) {
	c, err := YearBin(1990).CompareTo(mustYearAndMonth(1990, 7))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = mustYearAndMonth(1991, 1).CompareTo(mustYearAndMonth(1990, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = YearBin(1990).CompareTo(YearBin(1990))
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = mustMonthOnly(3).CompareTo(mustMonthOnly(11))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestBinIdentifier_CompareToIncompatibleKinds(t *testing.T) {
	pairs := [][2]BinIdentifier{
		{mustSeason(dateutil.Summer), mustSeason(dateutil.Winter)},
		{mustMonthOnly(1), YearBin(1990)},
		{YearBin(1990), mustSeason(dateutil.Wet)},
		{mustMonthOnly(1), mustSeason(dateutil.Wet)},
	}

	for _, p := range pairs {
		_, err := p[0].CompareTo(p[1])
		assert.ErrorIs(t, err, ErrIncompatibleIdentifiers, "%s vs %s", p[0], p[1])

		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
	}
}

func TestEnumerateYearAndMonthBinRangeUpTo(t *testing.T) {
	ids, err := EnumerateBinsInRange(mustYearAndMonth(1920, 7), mustYearAndMonth(1921, 6))
	require.NoError(t, err)
	require.Len(t, ids, 12)
	assert.Equal(t, "y1920m07", ids[0].ID())
	assert.Equal(t, "y1920m12", ids[5].ID())
	assert.Equal(t, "y1921m01", ids[6].ID())
	assert.Equal(t, "y1921m06", ids[11].ID())
}

func TestEnumerateBinsInRange_Years(t *testing.T) {
	ids, err := EnumerateBinsInRange(YearBin(1990), YearBin(1995))
	require.NoError(t, err)
	require.Len(t, ids, 6)
	assert.Equal(t, YearBin(1990), ids[0])
	assert.Equal(t, YearBin(1995), ids[5])

	ids, err = EnumerateBinsInRange(YearBin(1995), YearBin(1990))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEnumerateBinsInRange_MixedKinds(t *testing.T) {
	_, err := EnumerateBinsInRange(YearBin(1990), mustYearAndMonth(1990, 5))
	assert.ErrorIs(t, err, ErrIncompatibleIdentifiers)

	_, err = EnumerateBinsInRange(mustMonthOnly(1), mustMonthOnly(5))
	assert.ErrorIs(t, err, ErrIncompatibleIdentifiers)
}
