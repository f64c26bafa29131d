package binning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

func TestApplyBinningRules_EmptyInput(t *testing.T) {
	for _, rule := range []BinGranularity{ByYear, ByYearAndMonth, ByMonthOnly,
		BySouthernHemisphereTemperateSeasonOnly, BySouthernHemisphereTropicalSeasonOnly} {
		bins, err := ApplyBinningRules(nil, rule, 14)
		require.NoError(t, err, rule)
		assert.Empty(t, bins, rule)
	}
}

func TestApplyBinningRules_YearIntoFortnightCups(t *testing.T) {
	bins, err := ApplyBinningRules(constantYear(1990, 10), ByYear, 14)
	require.NoError(t, err)
	require.Len(t, bins, 1)

	bin := bins[0]
	assert.Equal(t, YearBin(1990), bin.Identifier)
	require.Len(t, bin.Buckets, 26)

	total := 0
	for i, bucket := range bin.Buckets {
		require.Len(t, bucket.Cups, 1, "every bucket holds one cup")
		cup := bucket.Cups[0]
		assert.Equal(t, cup.DaysCovered(), cup.ExpectedDataPoints)
		assert.Len(t, cup.Records, cup.ExpectedDataPoints)
		if i < 25 {
			assert.Equal(t, 14, cup.ExpectedDataPoints)
		}
		total += len(cup.Records)
	}
	assert.Equal(t, 365, total)

	last := bin.Buckets[25].Cups[0]
	assert.Equal(t, 15, last.ExpectedDataPoints, "the leftover day folds into the final cup")
	assert.Equal(t, dateutil.Date(1990, 12, 31), last.LastDay)
}

func TestApplyBinningRules_JanuaryTrailingDaysMergeIntoPreviousCup(t *testing.T) {
	bins, err := ApplyBinningRules(linearSeries(1990, 1, 1, 59, 5.0, 0.1), ByYearAndMonth, 14)
	require.NoError(t, err)
	require.Len(t, bins, 2)

	jan := bins[0]
	assert.Equal(t, "y1990m01", jan.Identifier.ID())
	cups := jan.Cups()
	require.Len(t, cups, 2)
	assert.Equal(t, dateutil.Date(1990, 1, 1), cups[0].FirstDay)
	assert.Equal(t, dateutil.Date(1990, 1, 14), cups[0].LastDay)
	assert.Equal(t, 14, cups[0].ExpectedDataPoints)
	assert.Equal(t, dateutil.Date(1990, 1, 15), cups[1].FirstDay)
	assert.Equal(t, dateutil.Date(1990, 1, 31), cups[1].LastDay)
	assert.Equal(t, 17, cups[1].ExpectedDataPoints)

	feb := bins[1]
	assert.Equal(t, "y1990m02", feb.Identifier.ID())
	assert.Len(t, feb.Cups(), 2)
	assert.Len(t, feb.Records(), 28)
}

func TestApplyBinningRulesWithOptions_TemperateSeasonYear(t *testing.T) {
	// 1 Dec 1989 through 28 Feb 1990
	records := linearSeries(1989, 12, 1, 90, 1, 0)
	opts := BinningOptions{TemperateSeasonYear: true}

	bins, err := ApplyBinningRulesWithOptions(records, ByYear, 14, opts)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, YearBin(1990), bins[0].Identifier)
	assert.Len(t, bins[0].Records(), 90)

	cups := bins[0].Cups()
	assert.Equal(t, dateutil.Date(1989, 12, 1), cups[0].FirstDay)
	assert.Equal(t, dateutil.Date(1990, 11, 30), cups[len(cups)-1].LastDay)

	bins, err = ApplyBinningRulesWithOptions(records, ByYearAndMonth, 14, opts)
	require.NoError(t, err)
	assert.Len(t, bins, 3, "month bins are not re-keyed")

	bins, err = ApplyBinningRules(records, ByYear, 14)
	require.NoError(t, err)
	assert.Len(t, bins, 2)
}

func TestApplyBinningRules_PartialYearKeepsExpectedCounts(t *testing.T) {
	// data only starts on 1 July, so the first half of the year has empty cups
	bins, err := ApplyBinningRules(linearSeries(1990, 7, 1, 184, 1, 0), ByYear, 30)
	require.NoError(t, err)
	require.Len(t, bins, 1)

	cups := bins[0].Cups()
	require.Len(t, cups, 12)
	assert.Empty(t, cups[0].Records)
	assert.Equal(t, 30, cups[0].ExpectedDataPoints)
	assert.Equal(t, 0.0, cups[0].DataProportion())
}

func TestApplyBinningRules_MonthOnlyAcrossYears(t *testing.T) {
	records := append(constantYear(1990, 1), constantYear(1991, 2)...)

	bins, err := ApplyBinningRules(records, ByMonthOnly, 14)
	require.NoError(t, err)
	require.Len(t, bins, 12)

	for i, bin := range bins {
		assert.Equal(t, mustMonthOnly(i+1), bin.Identifier)
		require.Len(t, bin.Buckets, 1)
		require.Len(t, bin.Buckets[0].Cups, 1)
	}

	jan := bins[0].Buckets[0].Cups[0]
	assert.Len(t, jan.Records, 62)
	assert.Equal(t, 62, jan.ExpectedDataPoints)
	feb := bins[1].Buckets[0].Cups[0]
	assert.Len(t, feb.Records, 56)
}

func TestApplyBinningRules_SeasonsInSeasonOrder(t *testing.T) {
	bins, err := ApplyBinningRules(constantYear(1990, 1), BySouthernHemisphereTemperateSeasonOnly, 14)
	require.NoError(t, err)
	require.Len(t, bins, 4)

	want := []dateutil.Season{dateutil.Summer, dateutil.Autumn, dateutil.Winter, dateutil.Spring}
	for i, s := range want {
		assert.Equal(t, mustSeason(s), bins[i].Identifier)
	}
	// Jan + Feb + Dec
	assert.Len(t, bins[0].Records(), 31+28+31)

	bins, err = ApplyBinningRules(constantYear(1990, 1), BySouthernHemisphereTropicalSeasonOnly, 14)
	require.NoError(t, err)
	require.Len(t, bins, 2)
	assert.Equal(t, mustSeason(dateutil.Wet), bins[0].Identifier)
	assert.Equal(t, mustSeason(dateutil.Dry), bins[1].Identifier)
	assert.Len(t, bins[1].Records(), 31+30+31+31+30+31)
}

func TestApplyBinningRules_MonthlyRecordsGetOneCupPerMonth(t *testing.T) {
	var records []models.DataRecord
	for m := 1; m <= 12; m++ {
		records = append(records, models.NewMonthlyRecord(1990, m, models.Float(float64(m))))
	}

	bins, err := ApplyBinningRules(records, ByYear, 14)
	require.NoError(t, err)
	require.Len(t, bins, 1)

	cups := bins[0].Cups()
	require.Len(t, cups, 12)
	for _, c := range cups {
		assert.Equal(t, 1, c.ExpectedDataPoints)
		assert.Len(t, c.Records, 1)
	}
	assert.Equal(t, 28, cups[1].DaysCovered())
}

func TestApplyBinningRules_YearlyRecords(t *testing.T) {
	records := []models.DataRecord{
		models.NewYearlyRecord(1990, models.Float(1)),
		models.NewYearlyRecord(1991, nil),
	}

	bins, err := ApplyBinningRules(records, ByYear, 14)
	require.NoError(t, err)
	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Cups()[0].ExpectedDataPoints)
	assert.Equal(t, 365, bins[0].Cups()[0].DaysCovered())

	_, err = ApplyBinningRules(records, ByYearAndMonth, 14)
	assert.ErrorIs(t, err, ErrUnsupportedRule)
}

func TestApplyBinningRules_ConfigurationErrors(t *testing.T) {
	records := constantYear(1990, 1)

	_, err := ApplyBinningRules(records, BinGranularity("ByDecade"), 14)
	assert.ErrorIs(t, err, ErrUnsupportedRule)

	_, err = ApplyBinningRules(records, ByYear, 0)
	assert.ErrorIs(t, err, ErrInvalidCupSize)

	mixed := append(records, models.NewMonthlyRecord(1991, 1, nil))
	_, err = ApplyBinningRules(mixed, ByYear, 14)
	assert.ErrorIs(t, err, ErrMixedResolution)
}
