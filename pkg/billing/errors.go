package billing

import "errors"

var (
	ErrRecordNotFound      = errors.New("billing record not found")
	ErrRecordAlreadyExists = errors.New("billing record already exists")

	ErrUnknownPrice   = errors.New("price id not in catalog")
	ErrEmptyCatalog   = errors.New("price catalog is empty")
	ErrInvalidCatalog = errors.New("invalid price catalog")

	ErrNotConfigured       = errors.New("billing provider not configured")
	ErrNoCustomer          = errors.New("school has no processor customer id")
	ErrCheckoutFailed      = errors.New("failed to create checkout session")
	ErrPortalFailed        = errors.New("failed to create portal session")
	ErrSignatureInvalid    = errors.New("webhook signature verification failed")
	ErrMissingSecret       = errors.New("webhook signing secret not configured")
	ErrMalformedPayload    = errors.New("malformed webhook payload")
	ErrMissingAPIKey       = errors.New("processor API key is required")
	ErrProviderUnavailable = errors.New("processor request failed")
)
