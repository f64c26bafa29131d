package binning

import (
	"errors"
	"fmt"
)

var (
	// ErrInconsistentMedian means median was chosen for some hierarchy levels but not all
	ErrInconsistentMedian = errors.New("median must be selected for bin, bucket and cup aggregation together or not at all")

	// ErrUnsupportedRule means a binning rule value is unknown or cannot apply to the data
	ErrUnsupportedRule = errors.New("unsupported binning rule")

	// ErrUnsupportedAggregation means an aggregation function value is unknown
	ErrUnsupportedAggregation = errors.New("unsupported aggregation function")

	// ErrIncompatibleIdentifiers means two bin identifiers have no defined ordering
	ErrIncompatibleIdentifiers = errors.New("bin identifiers of these kinds cannot be compared")

	// ErrNotGapless means a calendar span was requested from a month-only or season-only identifier
	ErrNotGapless = errors.New("bin identifier does not cover a contiguous calendar span")

	// ErrMixedResolution means a series mixes daily, monthly or yearly records
	ErrMixedResolution = errors.New("records of different resolutions cannot be binned together")

	// ErrInvalidCupSize means the cup size is not a positive number of days
	ErrInvalidCupSize = errors.New("cup size must be at least one day")
)

// ConfigurationError is a fatal, non-recoverable misconfiguration of a
// binning or aggregation request
type ConfigurationError struct {
	Op     string
	Detail string
	Err    error
}

func configError(op string, err error, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsTransient returns false as configuration errors never resolve on retry
func (e *ConfigurationError) IsTransient() bool {
	return false
}

// ParseError reports a malformed bin identifier string
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse bin identifier %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
