package model

import "errors"

// Input errors: reported per item, the batch continues.
var (
	ErrUnsupportedFormat = errors.New("media: unsupported format")
	ErrCorrupted         = errors.New("media: corrupted payload")
	ErrDurationExceeded  = errors.New("media: duration exceeds limit")
)

// Storage and analyzer errors.
var (
	ErrObjectNotFound = errors.New("storage: object not found")
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrTransient      = errors.New("storage: transient error")
	ErrQuotaExceeded  = errors.New("storage: quota exceeded")
	ErrAuth           = errors.New("storage: unauthorized")

	ErrAnalysis = errors.New("analyzer: provider error")
)

// IsInputError reports whether err is a per-item input validation failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCorrupted) ||
		errors.Is(err, ErrDurationExceeded)
}

// IsFatal reports whether err should stop scheduling of remaining batch work.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrQuotaExceeded)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
