package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithSchool adds a school to the context.
func WithSchool(ctx context.Context, school *School) context.Context {
	return context.WithValue(ctx, contextKey{}, school)
}

// FromContext retrieves the school from the context.
// Returns nil, false if no school is found.
func FromContext(ctx context.Context) (*School, bool) {
	school, ok := ctx.Value(contextKey{}).(*School)
	return school, ok
}

// IDFromContext retrieves just the school ID from the context.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	school, ok := FromContext(ctx)
	if !ok || school == nil {
		return uuid.UUID{}, false
	}
	return school.ID, true
}

// MustFromContext retrieves the school from the context and panics if none
// is present. Use only in handlers mounted behind Middleware.
func MustFromContext(ctx context.Context) *School {
	school, ok := FromContext(ctx)
	if !ok || school == nil {
		panic("tenant: no school in context")
	}
	return school
}

// LoggerExtractor returns a logger context extractor that annotates every
// log line with the school id and slug when a school is present.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if school, ok := FromContext(ctx); ok && school != nil {
			return slog.Group("school",
				slog.String("id", school.ID.String()),
				slog.String("slug", school.Slug),
			), true
		}
		return slog.Attr{}, false
	}
}
