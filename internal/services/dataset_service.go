package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"climate-platform/internal/binning"
	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// SeriesSpec names one source series of a build request
type SeriesSpec struct {
	DataSetID string `json:"data_set_id" validate:"required"`
}

// BuildRequest describes how to turn one or two series into binned values
type BuildRequest struct {
	SeriesDerivation          SeriesDerivation            `json:"series_derivation,omitempty" validate:"omitempty,oneof=Single Difference"`
	Series                    []SeriesSpec                `json:"series" validate:"required,min=1,max=2,dive"`
	Transform                 SeriesTransform             `json:"transform,omitempty" validate:"omitempty,oneof=Identity Negate IsPositive IsNegative EqualOrAbove1 EqualOrAbove10 EqualOrAbove25"`
	Filter                    SeriesFilter                `json:"filter"`
	BinningRule               binning.BinGranularity      `json:"binning_rule" validate:"required"`
	CupSize                   int                         `json:"cup_size,omitempty" validate:"gte=0"`
	BinAggregation            binning.AggregationFunction `json:"bin_aggregation" validate:"required"`
	BucketAggregation         binning.AggregationFunction `json:"bucket_aggregation" validate:"required"`
	CupAggregation            binning.AggregationFunction `json:"cup_aggregation" validate:"required"`
	RequiredCupDataProportion *float64                    `json:"required_cup_data_proportion,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// BuildDefaults fill request fields the caller left unset
type BuildDefaults struct {
	CupSize                   int
	RequiredCupDataProportion float64
}

// DataSetPoint is one output bin
type DataSetPoint struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// BuildResult is the ordered output of a build
type BuildResult struct {
	Points           []DataSetPoint `json:"points"`
	RecordCount      int            `json:"record_count"`
	BinCount         int            `json:"bin_count"`
	RejectedBinCount int            `json:"rejected_bin_count"`
}

// RequestValidationError lists the problems found in a build request
type RequestValidationError struct {
	Problems []string
}

func (e *RequestValidationError) Error() string {
	return "invalid build request: " + strings.Join(e.Problems, "; ")
}

func (e *RequestValidationError) IsTransient() bool {
	return false
}

// DataSetBuilder runs derive, transform, filter, bin, reject and aggregate for a request
type DataSetBuilder struct {
	source   RecordSource
	defaults BuildDefaults
	validate *validator.Validate
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewDataSetBuilder creates a builder reading series from source
func NewDataSetBuilder(source RecordSource, defaults BuildDefaults, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DataSetBuilder {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &DataSetBuilder{
		source:   source,
		defaults: defaults,
		validate: v,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// BuildDataSet produces one point per bin in ascending bin order. Rejected
// bins, and gaps between the first and last bin of a gapless rule, have a
// nil value. No input records give an empty result.
func (b *DataSetBuilder) BuildDataSet(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	timer := time.Now()

	result, err := b.build(ctx, req)
	if err != nil {
		b.metrics.RecordDataSetBuildFailure(ErrorType(err))
		b.logger.Error(ctx, "[DATASET_BUILD_ERROR] Data set build failed", logging.Fields{
			"binning_rule": string(req.BinningRule),
			"series":       seriesIDs(req.Series),
		}, err)
		return nil, err
	}

	duration := time.Since(timer)
	b.metrics.RecordDataSetBuild(string(req.BinningRule), result.RejectedBinCount, duration)
	b.logger.Info(ctx, "[DATASET_BUILD_COMPLETE] Data set built", logging.Fields{
		"binning_rule":  string(req.BinningRule),
		"series":        seriesIDs(req.Series),
		"records":       result.RecordCount,
		"bins":          result.BinCount,
		"rejected_bins": result.RejectedBinCount,
		"duration_ms":   duration.Milliseconds(),
	})
	return result, nil
}

func (b *DataSetBuilder) build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	req = b.withDefaults(req)
	if err := b.validateRequest(req); err != nil {
		return nil, err
	}

	records, err := b.deriveSeries(ctx, req)
	if err != nil {
		return nil, err
	}
	if records, err = transformRecords(records, req.Transform); err != nil {
		return nil, err
	}
	if records, err = filterRecords(records, req.Filter); err != nil {
		return nil, err
	}

	result := &BuildResult{Points: []DataSetPoint{}, RecordCount: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	opts := binning.BinningOptions{TemperateSeasonYear: req.Filter.TemperateSeason != ""}
	rawBins, err := binning.ApplyBinningRulesWithOptions(records, req.BinningRule, req.CupSize, opts)
	if err != nil {
		return nil, err
	}
	kept := binning.ApplyBinRejectionRules(rawBins, *req.RequiredCupDataProportion)
	bins, err := binning.AggregateBins(kept, req.BinAggregation, req.BucketAggregation, req.CupAggregation)
	if err != nil {
		return nil, err
	}

	ids, err := outputIdentifiers(rawBins, req)
	if err != nil {
		return nil, err
	}

	values := make(map[binning.BinIdentifier]*float64, len(bins))
	for _, bin := range bins {
		values[bin.Identifier] = bin.Value
	}
	for _, id := range ids {
		result.Points = append(result.Points, DataSetPoint{ID: id.ID(), Label: id.Label(), Value: values[id]})
	}
	result.BinCount = len(rawBins)
	result.RejectedBinCount = len(rawBins) - len(kept)
	return result, nil
}

// outputIdentifiers lists every bin to emit. Gapless rules cover the whole
// range between the first and last bin unless a month or season filter
// deliberately removed parts of it.
func outputIdentifiers(rawBins []binning.RawBin, req BuildRequest) ([]binning.BinIdentifier, error) {
	selective := len(req.Filter.Months) > 0 || req.Filter.TemperateSeason != "" || req.Filter.TropicalSeason != ""
	if req.BinningRule.IsGapless() && !selective {
		return binning.EnumerateBinsInRange(rawBins[0].Identifier, rawBins[len(rawBins)-1].Identifier)
	}
	ids := make([]binning.BinIdentifier, len(rawBins))
	for i, bin := range rawBins {
		ids[i] = bin.Identifier
	}
	return ids, nil
}

func (b *DataSetBuilder) withDefaults(req BuildRequest) BuildRequest {
	if req.SeriesDerivation == "" {
		req.SeriesDerivation = SingleSeries
	}
	if req.CupSize == 0 {
		req.CupSize = b.defaults.CupSize
	}
	if req.RequiredCupDataProportion == nil {
		p := b.defaults.RequiredCupDataProportion
		req.RequiredCupDataProportion = &p
	}
	return req
}

func (b *DataSetBuilder) validateRequest(req BuildRequest) error {
	if err := b.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate build request: %w", err)
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problem := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				problem = fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param())
			}
			problems = append(problems, problem)
		}
		return &RequestValidationError{Problems: problems}
	}

	want := 1
	if req.SeriesDerivation == DifferenceSeries {
		want = 2
	}
	if len(req.Series) != want {
		return &RequestValidationError{Problems: []string{
			fmt.Sprintf("%s derivation needs %d series, got %d", req.SeriesDerivation, want, len(req.Series)),
		}}
	}
	if req.CupSize < 1 {
		return &RequestValidationError{Problems: []string{"cup_size must be at least 1 day"}}
	}

	if err := req.BinningRule.Validate(); err != nil {
		return err
	}
	return binning.ValidateAggregationFunctions(req.BinAggregation, req.BucketAggregation, req.CupAggregation)
}

// deriveSeries fetches the requested series concurrently and combines them
func (b *DataSetBuilder) deriveSeries(ctx context.Context, req BuildRequest) ([]models.DataRecord, error) {
	series := make([][]models.DataRecord, len(req.Series))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range req.Series {
		i, spec := i, spec
		g.Go(func() error {
			records, err := b.source.GetRecords(gctx, spec.DataSetID)
			if err != nil {
				return fmt.Errorf("failed to get records of %s: %w", spec.DataSetID, err)
			}
			series[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if req.SeriesDerivation == DifferenceSeries {
		return differenceOf(series[0], series[1]), nil
	}
	return series[0], nil
}

func seriesIDs(specs []SeriesSpec) []string {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.DataSetID
	}
	return ids
}

// ErrorType classifies build errors for metrics and HTTP status mapping
func ErrorType(err error) string {
	var (
		reqErr      *RequestValidationError
		valErr      *models.ValidationError
		cfgErr      *binning.ConfigurationError
		parseErr    *binning.ParseError
		unknownErr  *UnknownDataSetError
		notFoundErr *repository.NotFoundError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErr), errors.As(err, &parseErr):
		return "validation"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &unknownErr), errors.As(err, &notFoundErr):
		return "unknown_data_set"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "internal"
}
