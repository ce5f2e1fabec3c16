package billing

import "context"

// Provider is the payment-processor abstraction. The Service talks only to
// this interface so handlers and the webhook pipeline are testable without
// network access; the Stripe implementation lives in stripe.go.
//
// All outbound calls take a context and must respect bounded timeouts: a
// hung processor call may not block the request path indefinitely.
type Provider interface {
	// CreateCheckoutSession starts a hosted checkout flow and returns its
	// redirect URL. The request carries tenant-correlation metadata so
	// later webhook events are resolvable even before the local record is
	// updated.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// CreatePortalSession starts a self-service management session for an
	// existing processor customer.
	CreatePortalSession(ctx context.Context, req PortalSessionRequest) (*PortalSession, error)

	// GetSubscription retrieves a subscription from the processor. Used as
	// the checkout-completed fallback when the event carries no line items.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)

	// VerifyWebhook authenticates a raw payload against its signature
	// header and parses it into a normalized Event. This is the single
	// trust boundary of the engine: it must fail closed when the signing
	// secret is absent, and no state may be mutated before it succeeds.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

// CheckoutSessionRequest describes a hosted checkout to be created.
type CheckoutSessionRequest struct {
	TenantID   string // school id, attached as metadata
	TenantSlug string // school slug, attached as metadata
	CustomerID string // existing processor customer id, reused when set
	PriceID    string // catalog-validated processor price id
	Email      string // optional billing email hint
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a created hosted-checkout flow.
type CheckoutSession struct {
	ID  string
	URL string
}

// PortalSessionRequest describes a self-service portal session.
type PortalSessionRequest struct {
	CustomerID string // required: portal sessions exist per customer
	ReturnURL  string
}

// PortalSession is a created portal session.
type PortalSession struct {
	URL string
}

// SubscriptionInfo is the slice of a processor subscription the engine
// needs: its current price and status.
type SubscriptionInfo struct {
	ID      string
	PriceID string
	Status  string
}

// disabledProvider stands in when no processor credentials are configured.
// Outbound calls fail with ErrNotConfigured and webhook verification fails
// closed, since there is no signing secret to verify against.
type disabledProvider struct{}

// NewDisabledProvider returns a Provider for deployments without processor
// credentials. The billing page still renders; everything else refuses.
func NewDisabledProvider() Provider {
	return disabledProvider{}
}

func (disabledProvider) CreateCheckoutSession(context.Context, CheckoutSessionRequest) (*CheckoutSession, error) {
	return nil, ErrNotConfigured
}

func (disabledProvider) CreatePortalSession(context.Context, PortalSessionRequest) (*PortalSession, error) {
	return nil, ErrNotConfigured
}

func (disabledProvider) GetSubscription(context.Context, string) (*SubscriptionInfo, error) {
	return nil, ErrNotConfigured
}

func (disabledProvider) VerifyWebhook([]byte, string) (*Event, error) {
	return nil, ErrMissingSecret
}
