package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Service orchestrates the billing lifecycle: it starts checkout and portal
// sessions, and keeps local records in sync with the processor's webhook
// stream. Handlers are idempotent field assignments and each one writes to
// exactly one record; the processor may deliver events duplicated or out of
// order, and convergence is last-write-wins by processing order.
type Service struct {
	store    RecordStore
	provider Provider
	catalog  *Catalog
	log      *slog.Logger
}

// ServiceOption configures optional Service settings.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the billing service. Panics on nil required
// dependencies to fail fast during initialization.
func NewService(store RecordStore, provider Provider, catalog *Catalog, opts ...ServiceOption) *Service {
	if store == nil {
		panic("billing: RecordStore is required")
	}
	if provider == nil {
		panic("billing: Provider is required")
	}
	if catalog == nil {
		panic("billing: Catalog is required")
	}

	s := &Service{
		store:    store,
		provider: provider,
		catalog:  catalog,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the price catalog for the billing page.
func (s *Service) Catalog() *Catalog { return s.catalog }

// EnsureRecord returns the school's billing record, creating the trial
// default on first access. Schools onboarded before billing existed get a
// record lazily the first time they open the billing page.
func (s *Service) EnsureRecord(ctx context.Context, tenantID uuid.UUID, slug string) (Record, error) {
	rec, err := s.store.Get(ctx, tenantID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}

	rec = NewRecord(tenantID, slug)
	if err := s.store.Create(ctx, rec); err != nil {
		// Lost a create race: another request provisioned the record first.
		if errors.Is(err, ErrRecordAlreadyExists) {
			return s.store.Get(ctx, tenantID)
		}
		return Record{}, err
	}
	return rec, nil
}

// CheckoutOptions carries the caller-supplied parts of a checkout request.
type CheckoutOptions struct {
	SuccessURL string
	CancelURL  string
	Email      string // optional billing email hint for new customers
}

// CreateCheckout starts a hosted checkout for the school's record. The
// price id must come from the server-side catalog; arbitrary ids are
// rejected before any processor call. Returns the external redirect URL.
func (s *Service) CreateCheckout(ctx context.Context, rec Record, priceID string, opts CheckoutOptions) (string, error) {
	if !s.catalog.Contains(priceID) {
		return "", ErrUnknownPrice
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		TenantID:   rec.TenantID.String(),
		TenantSlug: rec.Slug,
		CustomerID: rec.CustomerID,
		PriceID:    priceID,
		Email:      opts.Email,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to create checkout session",
			slog.String("school", rec.Slug), slog.Any("error", err))
		return "", err
	}
	return sess.URL, nil
}

// CreatePortal starts a self-service portal session. A school that never
// completed a checkout has no processor customer and cannot open a portal;
// that is a precondition, not a retryable failure.
func (s *Service) CreatePortal(ctx context.Context, rec Record, returnURL string) (string, error) {
	if rec.CustomerID == "" {
		return "", ErrNoCustomer
	}

	sess, err := s.provider.CreatePortalSession(ctx, PortalSessionRequest{
		CustomerID: rec.CustomerID,
		ReturnURL:  returnURL,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to create portal session",
			slog.String("school", rec.Slug), slog.Any("error", err))
		return "", err
	}
	return sess.URL, nil
}

// HandleWebhook verifies and dispatches one inbound event. It returns
// ErrSignatureInvalid (or ErrMissingSecret) when the payload cannot be
// trusted; the HTTP layer maps that to 400. Every other outcome is nil so
// the sender gets a 200 and does not retry events we intentionally ignore:
// resolution failures are logged no-ops, not errors.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrMissingSecret) {
			return err
		}
		// Verified but unparseable payloads are acknowledged; retrying
		// will not make them parseable.
		s.log.ErrorContext(ctx, "failed to parse webhook payload", slog.Any("error", err))
		return nil
	}

	s.log.InfoContext(ctx, "webhook event received", slog.String("type", string(event.Type)))

	switch event.Type {
	case EventCheckoutCompleted:
		s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated:
		s.handleSubscriptionUpdated(ctx, event)
	case EventSubscriptionDeleted:
		s.handleSubscriptionDeleted(ctx, event)
	default:
		s.log.DebugContext(ctx, "ignoring webhook event", slog.String("type", string(event.Type)))
	}
	return nil
}

// handleCheckoutCompleted links the processor customer and subscription to
// the school and unlocks it. The event's only tenant reference is the slug
// metadata attached at checkout creation. Checkout events usually arrive
// without line items, so the plan is resolved through a secondary
// subscription lookup; that call is the one outbound request the webhook
// path is allowed to make.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event *Event) {
	if event.TenantSlug == "" {
		s.log.WarnContext(ctx, "checkout completed without school metadata")
		return
	}

	rec, err := s.store.GetBySlug(ctx, event.TenantSlug)
	if err != nil {
		s.log.WarnContext(ctx, "checkout completed for unknown school",
			slog.String("school", event.TenantSlug), slog.Any("error", err))
		return
	}

	change := CheckoutChange{
		CustomerID:     event.CustomerID,
		SubscriptionID: event.SubscriptionID,
	}
	if plan, ok := s.catalog.PlanForPrice(event.PriceID); ok {
		change.Plan = plan
		change.PlanResolved = true
	}

	// No line items in the payload: fetch the subscription to learn its
	// price and real status. Failure degrades to the "active" default.
	if !change.PlanResolved && event.SubscriptionID != "" {
		if info, err := s.provider.GetSubscription(ctx, event.SubscriptionID); err != nil {
			s.log.ErrorContext(ctx, "failed to fetch subscription for plan resolution",
				slog.String("subscription_id", event.SubscriptionID), slog.Any("error", err))
		} else {
			change.Status = info.Status
			if plan, ok := s.catalog.PlanForPrice(info.PriceID); ok {
				change.Plan = plan
				change.PlanResolved = true
			}
		}
	}

	updated := ApplyCheckoutCompleted(rec, change)
	if err := s.store.Update(ctx, updated); err != nil {
		s.log.ErrorContext(ctx, "failed to persist checkout completion",
			slog.String("school", rec.Slug), slog.Any("error", err))
		return
	}

	s.log.InfoContext(ctx, "checkout completed",
		slog.String("school", rec.Slug),
		slog.String("customer_id", updated.CustomerID),
		slog.String("subscription_id", updated.SubscriptionID),
		slog.String("plan", string(updated.Plan)))
}

// handleSubscriptionUpdated mirrors status, plan, and cancellation schedule.
// The subscription id is the primary correlation key; slug metadata is the
// fallback for early events that precede the local linkage.
func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *Event) {
	rec, err := s.resolveBySubscription(ctx, event)
	if err != nil {
		s.log.WarnContext(ctx, "subscription update for unknown school",
			slog.String("subscription_id", event.SubscriptionID))
		return
	}

	change := SubscriptionChange{
		Status:            event.Status,
		CancelAt:          event.CancelAt,
		CancelAtPeriodEnd: event.CancelAtPeriodEnd,
		CurrentPeriodEnd:  event.CurrentPeriodEnd,
	}
	if plan, ok := s.catalog.PlanForPrice(event.PriceID); ok {
		change.Plan = plan
		change.PlanResolved = true
	}

	updated := ApplySubscriptionUpdated(rec, change)
	if err := s.store.Update(ctx, updated); err != nil {
		s.log.ErrorContext(ctx, "failed to persist subscription update",
			slog.String("school", rec.Slug), slog.Any("error", err))
		return
	}

	s.log.InfoContext(ctx, "subscription updated",
		slog.String("school", rec.Slug),
		slog.String("status", updated.SubscriptionStatus),
		slog.String("plan", string(updated.Plan)))
}

// handleSubscriptionDeleted locks the school. Plan is retained; a canceled
// school keeps its tier on record and regains access only through a new
// checkout (or operator intervention).
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *Event) {
	rec, err := s.store.GetBySubscriptionID(ctx, event.SubscriptionID)
	if err != nil {
		s.log.WarnContext(ctx, "subscription deletion for unknown school",
			slog.String("subscription_id", event.SubscriptionID))
		return
	}

	updated := ApplySubscriptionDeleted(rec)
	if err := s.store.Update(ctx, updated); err != nil {
		s.log.ErrorContext(ctx, "failed to persist subscription deletion",
			slog.String("school", rec.Slug), slog.Any("error", err))
		return
	}

	s.log.InfoContext(ctx, "subscription deleted, school locked",
		slog.String("school", rec.Slug),
		slog.String("plan", string(updated.Plan)))
}

func (s *Service) resolveBySubscription(ctx context.Context, event *Event) (Record, error) {
	rec, err := s.store.GetBySubscriptionID(ctx, event.SubscriptionID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}
	if event.TenantSlug == "" {
		return Record{}, ErrRecordNotFound
	}
	return s.store.GetBySlug(ctx, event.TenantSlug)
}
