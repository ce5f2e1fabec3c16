package billing

import "time"

// EventType is the processor's event name. Only the three types below
// mutate state; everything else is acknowledged and ignored.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is a verified, normalized webhook event. Fields are best-effort:
// processors omit pieces depending on event type and configuration, so
// every field except Type may be zero. Handlers degrade to documented
// fallbacks instead of failing on partial payloads.
type Event struct {
	Type EventType

	// Tenant correlation. SubscriptionID is the primary key for updates
	// and deletions; TenantSlug (from checkout/subscription metadata) is
	// the fallback used before the subscription id is known locally.
	TenantSlug     string
	CustomerID     string
	SubscriptionID string

	Status  string // processor's subscription status vocabulary
	PriceID string // from line items when present

	CancelAt          *time.Time
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}
