package services

import (
	"fmt"

	"climate-platform/internal/models"
)

// SeriesDerivation selects how the requested series are combined
type SeriesDerivation string

const (
	SingleSeries     SeriesDerivation = "Single"
	DifferenceSeries SeriesDerivation = "Difference"
)

// SeriesTransform is a per-record function applied before binning
type SeriesTransform string

const (
	Identity       SeriesTransform = "Identity"
	Negate         SeriesTransform = "Negate"
	IsPositive     SeriesTransform = "IsPositive"
	IsNegative     SeriesTransform = "IsNegative"
	EqualOrAbove1  SeriesTransform = "EqualOrAbove1"
	EqualOrAbove10 SeriesTransform = "EqualOrAbove10"
	EqualOrAbove25 SeriesTransform = "EqualOrAbove25"
)

var thresholds = map[SeriesTransform]float64{
	EqualOrAbove1:  1,
	EqualOrAbove10: 10,
	EqualOrAbove25: 25,
}

// Apply transforms v; nil stays nil
func (t SeriesTransform) Apply(v *float64) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case Identity, "":
		return v, nil
	case Negate:
		return models.Float(-*v), nil
	case IsPositive:
		return indicator(*v > 0), nil
	case IsNegative:
		return indicator(*v < 0), nil
	case EqualOrAbove1, EqualOrAbove10, EqualOrAbove25:
		return indicator(*v >= thresholds[t]), nil
	}
	return nil, fmt.Errorf("unknown series transform %q", t)
}

func indicator(b bool) *float64 {
	if b {
		return models.Float(1)
	}
	return models.Float(0)
}

func transformRecords(records []models.DataRecord, t SeriesTransform) ([]models.DataRecord, error) {
	if t == Identity || t == "" {
		return records, nil
	}
	out := make([]models.DataRecord, len(records))
	for i, r := range records {
		v, err := t.Apply(r.Value)
		if err != nil {
			return nil, err
		}
		out[i] = r.WithValue(v)
	}
	return out, nil
}

// differenceOf keeps the keys present in both series, in a's order, with value a-b.
// A null on either side gives a null difference.
func differenceOf(a, b []models.DataRecord) []models.DataRecord {
	byKey := make(map[models.RecordKey]*float64, len(b))
	for _, r := range b {
		byKey[r.Key()] = r.Value
	}

	out := make([]models.DataRecord, 0, len(a))
	for _, r := range a {
		bv, ok := byKey[r.Key()]
		if !ok {
			continue
		}
		var v *float64
		if r.Value != nil && bv != nil {
			v = models.Float(*r.Value - *bv)
		}
		out = append(out, r.WithValue(v))
	}
	return out
}
