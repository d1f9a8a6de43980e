package model

import "errors"

var (
	// ErrUnknownCompany is returned when a company name is not registered.
	ErrUnknownCompany = errors.New("unknown company")
	// ErrDataUnavailable is returned when the provider has no rows for a request.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrMissingMetric is returned when a snapshot lacks a requested field.
	ErrMissingMetric = errors.New("missing metric")
)
