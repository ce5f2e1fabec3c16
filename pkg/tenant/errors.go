package tenant

import "errors"

var (
	// ErrSchoolNotFound is returned when no school matches an identifier.
	ErrSchoolNotFound = errors.New("school not found")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid school identifier")

	// ErrNoSchoolInContext is returned when no school is present in context.
	ErrNoSchoolInContext = errors.New("no school in context")
)
