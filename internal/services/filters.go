package services

import (
	"time"

	"climate-platform/internal/dateutil"
	"climate-platform/internal/models"
)

// SeriesFilter restricts which records reach the binner. Empty fields do not filter.
type SeriesFilter struct {
	StartDate       string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TemperateSeason string `json:"temperate_season,omitempty" validate:"omitempty,oneof=Summer Autumn Winter Spring"`
	TropicalSeason  string `json:"tropical_season,omitempty" validate:"omitempty,oneof=Wet Dry"`
	Months          []int  `json:"months,omitempty" validate:"omitempty,dive,min=1,max=12"`
}

type compiledFilter struct {
	start, end *time.Time
	temperate  dateutil.Season
	tropical   dateutil.Season
	months     map[int]bool
}

func (f SeriesFilter) compile() (*compiledFilter, error) {
	cf := &compiledFilter{}
	var err error
	if cf.start, err = parseBound(f.StartDate); err != nil {
		return nil, err
	}
	if cf.end, err = parseBound(f.EndDate); err != nil {
		return nil, err
	}
	if f.TemperateSeason != "" {
		if cf.temperate, err = dateutil.ParseSeason(f.TemperateSeason); err != nil || !cf.temperate.IsTemperate() {
			return nil, &models.ValidationError{Field: "temperate_season", Value: f.TemperateSeason, Message: "not a temperate season"}
		}
	}
	if f.TropicalSeason != "" {
		if cf.tropical, err = dateutil.ParseSeason(f.TropicalSeason); err != nil || !cf.tropical.IsTropical() {
			return nil, &models.ValidationError{Field: "tropical_season", Value: f.TropicalSeason, Message: "not a tropical season"}
		}
	}
	if len(f.Months) > 0 {
		cf.months = make(map[int]bool, len(f.Months))
		for _, m := range f.Months {
			cf.months[m] = true
		}
	}
	return cf, nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, &models.ValidationError{Field: "date", Value: s, Message: "expected YYYY-MM-DD"}
	}
	return &t, nil
}

// keep reports whether r passes every configured filter. A record passes
// the date range when its period overlaps it. Month and season filters drop
// yearly records, which have no month.
func (cf *compiledFilter) keep(r models.DataRecord) bool {
	if cf.start != nil && r.PeriodEnd().Before(*cf.start) {
		return false
	}
	if cf.end != nil && r.PeriodStart().After(*cf.end) {
		return false
	}
	if cf.temperate == 0 && cf.tropical == 0 && cf.months == nil {
		return true
	}
	if r.Month == 0 {
		return false
	}
	if cf.temperate != 0 {
		if s, _ := dateutil.GetTemperateSeasonForMonth(r.Month); s != cf.temperate {
			return false
		}
	}
	if cf.tropical != 0 {
		if s, _ := dateutil.GetTropicalSeasonForMonth(r.Month); s != cf.tropical {
			return false
		}
	}
	if cf.months != nil && !cf.months[r.Month] {
		return false
	}
	return true
}

func filterRecords(records []models.DataRecord, f SeriesFilter) ([]models.DataRecord, error) {
	cf, err := f.compile()
	if err != nil {
		return nil, err
	}
	out := make([]models.DataRecord, 0, len(records))
	for _, r := range records {
		if cf.keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
