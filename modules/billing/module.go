package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enrollkit/enrollkit/core"
	billingsvc "github.com/enrollkit/enrollkit/pkg/billing"
	"github.com/enrollkit/enrollkit/pkg/feature"
	"github.com/enrollkit/enrollkit/pkg/tenant"
)

// Config holds the redirect targets for the hosted checkout and portal
// flows. The processor sends the browser back to these URLs, so they must
// be absolute.
type Config struct {
	SuccessURL string `env:"BILLING_SUCCESS_URL" envDefault:"http://localhost:8080/billing?checkout=success"`
	CancelURL  string `env:"BILLING_CANCEL_URL" envDefault:"http://localhost:8080/billing?checkout=cancel"`
	ReturnURL  string `env:"BILLING_RETURN_URL" envDefault:"http://localhost:8080/billing"`
}

// Module serves the tenant-facing billing pages: the overview with plan,
// features, and pricing, plus the checkout and portal entry points. It must
// be mounted behind the tenant middleware; every route requires a school.
type Module struct {
	svc        *billingsvc.Service
	cfg        Config
	configured bool
	log        *slog.Logger
}

// Option configures optional Module settings.
type Option func(*Module)

// WithLogger sets the module logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithProcessorConfigured marks the payment processor as fully configured.
// When false the overview still renders, but checkout and portal redirect
// back with an error instead of calling the processor.
func WithProcessorConfigured(ok bool) Option {
	return func(m *Module) {
		m.configured = ok
	}
}

// NewModule creates the billing module. Panics on a nil service to fail
// fast during initialization.
func NewModule(svc *billingsvc.Service, cfg Config, opts ...Option) *Module {
	if svc == nil {
		panic("billing module: Service is required")
	}

	m := &Module{
		svc: svc,
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the module router. All routes require a resolved school.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(tenant.RequireSchool(nil))

	r.Get("/", m.handlePage)
	r.Post("/checkout", m.handleCheckout)
	r.Post("/portal", m.handlePortal)

	return r
}

// PageData is the billing overview payload.
type PageData struct {
	Plan               string          `json:"plan"`
	SubscriptionStatus string          `json:"subscription_status,omitempty"`
	HasSubscription    bool            `json:"has_subscription"`
	IsActive           bool            `json:"is_active"`
	Features           map[string]bool `json:"features"`
	Cancellation       *Cancellation   `json:"cancellation,omitempty"`
	Options            []PriceOption   `json:"options"`
	Configured         bool            `json:"configured"`
}

// Cancellation describes a scheduled subscription end for the banner.
type Cancellation struct {
	EndsAt      string `json:"ends_at"`
	AtPeriodEnd bool   `json:"at_period_end"`
	Overdue     bool   `json:"overdue"`
}

// PriceOption is one purchasable catalog entry as shown on the page.
type PriceOption struct {
	Key      string `json:"key"`
	PriceID  string `json:"price_id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Plan     string `json:"plan"`
	Interval string `json:"interval"`
	Current  bool   `json:"current"`
}

func (m *Module) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	school := tenant.MustFromContext(ctx)

	rec, err := m.svc.EnsureRecord(ctx, school.ID, school.Slug)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to load billing record",
			slog.String("school", school.Slug), slog.Any("error", err))
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	core.Render(w, r, core.JSON("billing_page", m.pageData(school, rec)))
}

func (m *Module) pageData(school *tenant.School, rec billingsvc.Record) PageData {
	features := make(map[string]bool)
	for flag, enabled := range feature.Merge(rec.Plan, school.FeatureOverrides) {
		features[string(flag)] = enabled
	}

	data := PageData{
		Plan:               string(rec.Plan),
		SubscriptionStatus: rec.SubscriptionStatus,
		HasSubscription:    rec.HasSubscription(),
		IsActive:           rec.IsActive,
		Features:           features,
		Configured:         m.configured && !m.svc.Catalog().Empty(),
	}

	if end, ok := rec.EffectiveCancelTime(); ok {
		data.Cancellation = &Cancellation{
			EndsAt:      end.UTC().Format("2006-01-02"),
			AtPeriodEnd: rec.CancelAtPeriodEnd,
			Overdue:     end.Before(time.Now().UTC()),
		}
	}

	for _, opt := range m.svc.Catalog().Options() {
		data.Options = append(data.Options, PriceOption{
			Key:      opt.Key,
			PriceID:  opt.PriceID,
			Name:     opt.Name,
			Amount:   opt.Amount,
			Plan:     string(opt.Plan),
			Interval: opt.Interval,
			Current:  opt.Plan == rec.Plan && rec.HasActiveSubscription(),
		})
	}
	return data
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	school := tenant.MustFromContext(ctx)

	if !m.configured || m.svc.Catalog().Empty() {
		core.Render(w, r, m.redirectError("billing_not_configured"))
		return
	}

	priceID := r.FormValue("price_id")
	if priceID == "" {
		core.Render(w, r, m.redirectError("missing_price"))
		return
	}

	rec, err := m.svc.EnsureRecord(ctx, school.ID, school.Slug)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to load billing record",
			slog.String("school", school.Slug), slog.Any("error", err))
		core.Render(w, r, m.redirectError("checkout_failed"))
		return
	}

	checkoutURL, err := m.svc.CreateCheckout(ctx, rec, priceID, billingsvc.CheckoutOptions{
		SuccessURL: m.cfg.SuccessURL,
		CancelURL:  m.cfg.CancelURL,
		Email:      school.ContactEmail,
	})
	switch {
	case err == nil:
		core.Render(w, r, core.RedirectWithCode(checkoutURL, http.StatusFound))
	case errors.Is(err, billingsvc.ErrUnknownPrice):
		core.Render(w, r, m.redirectError("unknown_price"))
	default:
		core.Render(w, r, m.redirectError("checkout_failed"))
	}
}

func (m *Module) handlePortal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	school := tenant.MustFromContext(ctx)

	if !m.configured {
		core.Render(w, r, m.redirectError("billing_not_configured"))
		return
	}

	rec, err := m.svc.EnsureRecord(ctx, school.ID, school.Slug)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to load billing record",
			slog.String("school", school.Slug), slog.Any("error", err))
		core.Render(w, r, m.redirectError("portal_failed"))
		return
	}

	portalURL, err := m.svc.CreatePortal(ctx, rec, m.cfg.ReturnURL)
	switch {
	case err == nil:
		core.Render(w, r, core.RedirectWithCode(portalURL, http.StatusFound))
	case errors.Is(err, billingsvc.ErrNoCustomer):
		core.Render(w, r, m.redirectError("no_subscription"))
	default:
		core.Render(w, r, m.redirectError("portal_failed"))
	}
}

// redirectError sends the browser back to the billing page with an error
// code in the query string.
func (m *Module) redirectError(code string) core.Response {
	target := m.cfg.ReturnURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("error", code)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	return core.RedirectWithCode(target, http.StatusSeeOther)
}
