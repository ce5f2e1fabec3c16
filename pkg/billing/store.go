package billing

import (
	"context"

	"github.com/google/uuid"
)

// RecordStore is the persistence port for billing records. TenantID is the
// primary key; every write is scoped to a single record so a webhook event
// can never touch more than one school.
//
// Update is also the superuser escape hatch: operator tooling may flip the
// lock flag through it when a deletion webhook was missed.
type RecordStore interface {
	// Create inserts the onboarding record for a school.
	// Returns ErrRecordAlreadyExists when the tenant already has one.
	Create(ctx context.Context, rec Record) error

	// Get retrieves a record by tenant id.
	// Returns ErrRecordNotFound when no record exists.
	Get(ctx context.Context, tenantID uuid.UUID) (Record, error)

	// GetBySlug retrieves a record by school slug. Used to correlate
	// checkout events, whose only tenant reference is metadata.
	GetBySlug(ctx context.Context, slug string) (Record, error)

	// GetBySubscriptionID retrieves the record whose processor
	// subscription id matches. Primary correlation path for subscription
	// update and deletion events.
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (Record, error)

	// Update persists a record with a single write scoped by TenantID.
	// Returns ErrRecordNotFound when the tenant has no record.
	Update(ctx context.Context, rec Record) error

	// ListActive returns all records with the lock flag still set. The
	// reminder scanner reads these; it never writes.
	ListActive(ctx context.Context) ([]Record, error)
}
