package alert

import "errors"

var (
	// ErrInvalidURL is returned when the alert endpoint URL is missing or
	// not an http(s) URL.
	ErrInvalidURL = errors.New("invalid alert URL")

	// ErrDeliveryFailed is returned when every delivery attempt failed.
	ErrDeliveryFailed = errors.New("alert delivery failed")

	// ErrPermanentFailure is returned when the endpoint rejected the alert
	// with a non-retryable status.
	ErrPermanentFailure = errors.New("permanent alert delivery failure")
)
