package binning

import (
	"math"
	"sort"

	"climate-platform/internal/models"
)

// containerAggregate is the aggregate of one cup or bucket together with the
// number of days it stands for
type containerAggregate struct {
	value   *float64
	periods int
}

// ValidateAggregationFunctions checks each function is known and that median
// is chosen at all three levels or none
func ValidateAggregationFunctions(binFn, bucketFn, cupFn AggregationFunction) error {
	for _, f := range []AggregationFunction{binFn, bucketFn, cupFn} {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	medians := 0
	for _, f := range []AggregationFunction{binFn, bucketFn, cupFn} {
		if f == Median {
			medians++
		}
	}
	if medians != 0 && medians != 3 {
		return configError("aggregate bins", ErrInconsistentMedian,
			"bin=%s bucket=%s cup=%s", binFn, bucketFn, cupFn)
	}
	return nil
}

// AggregateBins reduces each raw bin to a single value.
//
// Repeatable functions run bottom-up: each cup over its records, each bucket
// over its cups and the bin over its buckets. Means weight every child by the
// number of days it covers rather than by how many values it held. Median is
// computed once over all of a bin's values. A bin without any value
// aggregates to nil.
func AggregateBins(bins []RawBin, binFn, bucketFn, cupFn AggregationFunction) ([]Bin, error) {
	if err := ValidateAggregationFunctions(binFn, bucketFn, cupFn); err != nil {
		return nil, err
	}

	result := make([]Bin, 0, len(bins))
	for _, bin := range bins {
		var value *float64
		if binFn == Median {
			value = median(presentValues(bin.Records()))
		} else {
			value = aggregateHierarchically(bin, binFn, bucketFn, cupFn)
		}
		result = append(result, Bin{Identifier: bin.Identifier, Value: value})
	}
	return result, nil
}

func aggregateHierarchically(bin RawBin, binFn, bucketFn, cupFn AggregationFunction) *float64 {
	bucketAggregates := make([]containerAggregate, len(bin.Buckets))
	for bucketIndex, bucket := range bin.Buckets {
		cupAggregates := make([]containerAggregate, len(bucket.Cups))
		for cupIndex, cup := range bucket.Cups {
			values := presentValues(cup.Records)
			cupAggregates[cupIndex] = containerAggregate{
				value:   apply(cupFn, values, unitWeights(len(values))),
				periods: cup.DaysCovered(),
			}
		}
		bucketAggregates[bucketIndex] = containerAggregate{
			value:   applyToAggregates(bucketFn, cupAggregates),
			periods: bucket.DaysCovered(),
		}
	}
	return applyToAggregates(binFn, bucketAggregates)
}

// applyToAggregates skips children with no value, so their days carry no weight
func applyToAggregates(fn AggregationFunction, children []containerAggregate) *float64 {
	values := make([]float64, 0, len(children))
	weights := make([]float64, 0, len(children))
	for _, c := range children {
		if c.value == nil {
			continue
		}
		values = append(values, *c.value)
		weights = append(weights, float64(c.periods))
	}
	return apply(fn, values, weights)
}

func apply(fn AggregationFunction, values, weights []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	var v float64
	switch fn {
	case Mean:
		var sum, totalWeight float64
		for i, x := range values {
			sum += x * weights[i]
			totalWeight += weights[i]
		}
		if totalWeight == 0 {
			return nil
		}
		v = sum / totalWeight
	case Sum:
		for _, x := range values {
			v += x
		}
	case Min:
		v = math.Inf(1)
		for _, x := range values {
			v = math.Min(v, x)
		}
	case Max:
		v = math.Inf(-1)
		for _, x := range values {
			v = math.Max(v, x)
		}
	case Median:
		return median(values)
	}
	return &v
}

// median sorts a copy; odd counts take the middle element, even counts the
// mean of the two middle elements
func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	v := sorted[mid]
	if len(sorted)%2 == 0 {
		v = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &v
}

func presentValues(records []models.DataRecord) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Value != nil {
			values = append(values, *r.Value)
		}
	}
	return values
}

func unitWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}
