package models

import "time"

// DataSetSummary describes a stored series and its last ingestion
type DataSetSummary struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Units          string         `json:"units,omitempty" db:"units"`
	Resolution     DataResolution `json:"resolution" db:"resolution"`
	RecordCount    int            `json:"record_count" db:"record_count"`
	PresentCount   int            `json:"present_count" db:"present_count"`
	FirstYear      *int           `json:"first_year,omitempty" db:"first_year"`
	LastYear       *int           `json:"last_year,omitempty" db:"last_year"`
	FillerRecords  int            `json:"filler_records" db:"filler_records"`
	DroppedRecords int            `json:"dropped_records" db:"dropped_records"`
	IngestedAt     *time.Time     `json:"ingested_at,omitempty" db:"ingested_at"`
}

// Coverage is the share of stored records that carry a value
func (s DataSetSummary) Coverage() float64 {
	if s.RecordCount == 0 {
		return 0
	}
	return float64(s.PresentCount) / float64(s.RecordCount)
}

// SummarizeRecords fills the record-derived counters of s from records,
// which must be in date order
func SummarizeRecords(s *DataSetSummary, records []DataRecord) {
	s.RecordCount = len(records)
	s.PresentCount = 0
	s.FirstYear, s.LastYear = nil, nil
	for _, r := range records {
		if r.HasValue() {
			s.PresentCount++
		}
	}
	if len(records) > 0 {
		first, last := records[0].Year, records[len(records)-1].Year
		s.FirstYear, s.LastYear = &first, &last
	}
}
