package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeConfig holds Stripe credentials and tuning.
type StripeConfig struct {
	SecretKey      string        `env:"STRIPE_SECRET_KEY"`
	PublishableKey string        `env:"STRIPE_PUBLISHABLE_KEY"`
	WebhookSecret  string        `env:"STRIPE_WEBHOOK_SECRET"`
	Timeout        time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s"`
}

// Configured reports whether both API keys are present. An unconfigured
// deployment disables checkout and portal up front instead of failing late.
func (c StripeConfig) Configured() bool {
	return c.SecretKey != "" && c.PublishableKey != ""
}

// StripeProvider implements Provider on the official Stripe SDK.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed provider. The HTTP client
// timeout bounds every outbound call so a slow processor cannot hang the
// request path.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateCheckoutSession starts a subscription-mode hosted checkout. The
// school slug and id go into both the session metadata and the resulting
// subscription's metadata so every later webhook event can be correlated
// back to exactly one tenant.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.Join(ErrCheckoutFailed, errors.New("price id is required"))
	}

	metadata := map[string]string{
		"school_slug": req.TenantSlug,
		"school_id":   req.TenantID,
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	// Reuse the existing Stripe customer when the school already has one;
	// otherwise Stripe creates a fresh customer during checkout.
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrCheckoutFailed, err)
	}
	if sess.URL == "" {
		return nil, errors.Join(ErrCheckoutFailed, errors.New("no checkout URL returned"))
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession starts a Stripe Billing Portal session.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, req PortalSessionRequest) (*PortalSession, error) {
	if req.CustomerID == "" {
		return nil, ErrNoCustomer
	}

	sess, err := p.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(req.CustomerID),
		ReturnURL: stripe.String(req.ReturnURL),
	})
	if err != nil {
		return nil, errors.Join(ErrPortalFailed, err)
	}
	if sess.URL == "" {
		return nil, errors.Join(ErrPortalFailed, errors.New("no portal URL returned"))
	}

	return &PortalSession{URL: sess.URL}, nil
}

// GetSubscription retrieves a subscription's current price and status.
func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	sub, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	info := &SubscriptionInfo{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		info.PriceID = sub.Items.Data[0].Price.ID
	}
	return info, nil
}

// VerifyWebhook authenticates the payload with Stripe's signature scheme
// and normalizes the event. A missing signing secret fails closed: without
// it no inbound event can be trusted.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrMissingSecret
	}

	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	return normalizeStripeEvent(stripeEvent)
}

// checkoutSessionPayload is the slice of a checkout.session.completed data
// object the engine reads. Stripe sends "customer" and "subscription" as
// plain ids in webhook payloads.
type checkoutSessionPayload struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
	LineItems    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

// subscriptionPayload is the slice of a customer.subscription.* data object
// the engine reads.
type subscriptionPayload struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	Metadata          map[string]string `json:"metadata"`
	CancelAt          *int64            `json:"cancel_at"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *int64            `json:"current_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodEnd *int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// normalizeStripeEvent maps a verified Stripe event envelope onto the
// engine's Event. Unknown event types pass through with just Type set so
// the dispatcher can acknowledge them without retries.
func normalizeStripeEvent(stripeEvent stripe.Event) (*Event, error) {
	ev := &Event{Type: EventType(stripeEvent.Type)}
	if stripeEvent.Data == nil {
		return ev, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		var data checkoutSessionPayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &data); err != nil {
			return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("checkout session: %w", err))
		}
		ev.CustomerID = data.Customer
		ev.SubscriptionID = data.Subscription
		ev.TenantSlug = data.Metadata["school_slug"]
		if len(data.LineItems.Data) > 0 {
			ev.PriceID = data.LineItems.Data[0].Price.ID
		}

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var data subscriptionPayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &data); err != nil {
			return nil, errors.Join(ErrMalformedPayload, fmt.Errorf("subscription: %w", err))
		}
		ev.SubscriptionID = data.ID
		ev.Status = data.Status
		ev.TenantSlug = data.Metadata["school_slug"]
		if len(data.Items.Data) > 0 {
			ev.PriceID = data.Items.Data[0].Price.ID
		}
		ev.CancelAt = epochToTime(data.CancelAt)
		ev.CancelAtPeriodEnd = data.CancelAtPeriodEnd
		// Newer API versions report the period end on the subscription item
		// rather than the subscription itself; accept either.
		periodEnd := data.CurrentPeriodEnd
		if periodEnd == nil && len(data.Items.Data) > 0 {
			periodEnd = data.Items.Data[0].CurrentPeriodEnd
		}
		ev.CurrentPeriodEnd = epochToTime(periodEnd)
	}

	return ev, nil
}

// epochToTime converts Stripe's unix-second timestamps, treating nil and
// zero as "not set".
func epochToTime(v *int64) *time.Time {
	if v == nil || *v == 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
