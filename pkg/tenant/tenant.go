package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// School is the tenant identity carried through a request. It holds only
// what request-scoped code needs; billing state lives in its own record and
// is always read fresh, never embedded here.
type School struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`

	// ContactEmail seeds processor checkout for schools without a customer.
	ContactEmail string `json:"contact_email,omitempty"`

	// FeatureOverrides are per-school admin overrides layered on top of the
	// plan defaults. Values other than booleans are ignored downstream.
	FeatureOverrides map[string]any `json:"feature_overrides,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Provider loads school identity from a data source.
type Provider interface {
	// GetBySlug retrieves a school by its unique slug.
	// Returns ErrSchoolNotFound if no school matches.
	GetBySlug(ctx context.Context, slug string) (*School, error)
}
