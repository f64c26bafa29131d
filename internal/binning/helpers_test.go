package binning

import (
	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

// linearSeries returns one daily record per day from start for n days,
// valued base + step*dayIndex
func linearSeries(startYear, startMonth, startDay, n int, base, step float64) []models.DataRecord {
	start := dateutil.Date(startYear, startMonth, startDay)
	records := make([]models.DataRecord, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		records[i] = models.NewDailyRecord(d.Year(), int(d.Month()), d.Day(), models.Float(base+step*float64(i)))
	}
	return records
}

func constantYear(year int, value float64) []models.DataRecord {
	return linearSeries(year, 1, 1, dateutil.DaysInYear(year), value, 0)
}

func mustYearAndMonth(year, month int) BinIdentifier {
	id, err := YearAndMonthBin(year, month)
	if err != nil {
		panic(err)
	}
	return id
}

func mustMonthOnly(month int) BinIdentifier {
	id, err := MonthOnlyBin(month)
	if err != nil {
		panic(err)
	}
	return id
}

func mustSeason(s dateutil.Season) BinIdentifier {
	id, err := SeasonOnlyBin(s)
	if err != nil {
		panic(err)
	}
	return id
}
