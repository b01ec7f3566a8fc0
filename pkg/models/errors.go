package models

import "errors"

var (
	// ErrNegativeActiveLogos aborts a run when churn exceeds the prior active base.
	ErrNegativeActiveLogos = errors.New("negative active logos")
	// ErrInvalidInput wraps every input table or settings rejection.
	ErrInvalidInput = errors.New("invalid input")
	// ErrValidationFailed is returned in strict mode when a gate reports an error.
	ErrValidationFailed = errors.New("validation failed")
)
