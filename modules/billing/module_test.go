package billing_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollkit/enrollkit/core"
	billingmod "github.com/enrollkit/enrollkit/modules/billing"
	"github.com/enrollkit/enrollkit/pkg/billing"
	"github.com/enrollkit/enrollkit/pkg/tenant"
)

// stubProvider implements billing.Provider with pluggable behavior.
type stubProvider struct {
	checkout func(context.Context, billing.CheckoutSessionRequest) (*billing.CheckoutSession, error)
	portal   func(context.Context, billing.PortalSessionRequest) (*billing.PortalSession, error)
	verify   func(payload []byte, signature string) (*billing.Event, error)
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
	if p.checkout == nil {
		return nil, billing.ErrCheckoutFailed
	}
	return p.checkout(ctx, req)
}

func (p *stubProvider) CreatePortalSession(ctx context.Context, req billing.PortalSessionRequest) (*billing.PortalSession, error) {
	if p.portal == nil {
		return nil, billing.ErrPortalFailed
	}
	return p.portal(ctx, req)
}

func (p *stubProvider) GetSubscription(ctx context.Context, id string) (*billing.SubscriptionInfo, error) {
	return nil, billing.ErrRecordNotFound
}

func (p *stubProvider) VerifyWebhook(payload []byte, signature string) (*billing.Event, error) {
	if p.verify == nil {
		return nil, billing.ErrSignatureInvalid
	}
	return p.verify(payload, signature)
}

func testCatalog(t *testing.T) *billing.Catalog {
	t.Helper()
	catalog, err := billing.NewCatalog(
		billing.PriceOption{Key: "starter_monthly", PriceID: "price_starter", Name: "Starter", Amount: "$29 / month", Plan: billing.PlanStarter, Interval: "month"},
		billing.PriceOption{Key: "pro_monthly", PriceID: "price_pro", Name: "Pro", Amount: "$79 / month", Plan: billing.PlanPro, Interval: "month"},
	)
	require.NoError(t, err)
	return catalog
}

type moduleEnv struct {
	store  billing.RecordStore
	school *tenant.School
	srv    *httptest.Server
}

// newModuleEnv mounts the module the way the application does, with the
// school already resolved into the request context.
func newModuleEnv(t *testing.T, provider billing.Provider, opts ...billingmod.Option) *moduleEnv {
	t.Helper()

	store := billing.NewMemoryStore()
	svc := billing.NewService(store, provider, testCatalog(t),
		billing.WithLogger(slog.New(slog.DiscardHandler)))

	school := &tenant.School{
		ID:           uuid.New(),
		Slug:         "acme",
		Name:         "Acme Academy",
		ContactEmail: "admin@acme.test",
	}

	opts = append([]billingmod.Option{
		billingmod.WithLogger(slog.New(slog.DiscardHandler)),
		billingmod.WithProcessorConfigured(true),
	}, opts...)
	mod := billingmod.NewModule(svc, billingmod.Config{
		SuccessURL: "https://app.example/billing?checkout=success",
		CancelURL:  "https://app.example/billing?checkout=cancel",
		ReturnURL:  "https://app.example/billing",
	}, opts...)

	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(tenant.WithSchool(r.Context(), school)))
		})
	}

	srv := httptest.NewServer(inject(mod.Handle()))
	t.Cleanup(srv.Close)

	return &moduleEnv{store: store, school: school, srv: srv}
}

// noRedirectClient returns redirect responses instead of following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestModule_Page(t *testing.T) {
	t.Parallel()

	t.Run("renders the trial default for a new school", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{})

		resp, err := http.Get(env.srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "billing_page", body.Code)

		raw, err := json.Marshal(body.Data)
		require.NoError(t, err)
		var page billingmod.PageData
		require.NoError(t, json.Unmarshal(raw, &page))

		assert.Equal(t, "trial", page.Plan)
		assert.False(t, page.HasSubscription)
		assert.True(t, page.IsActive)
		assert.True(t, page.Configured)
		assert.Nil(t, page.Cancellation)
		assert.Len(t, page.Options, 2)
		assert.True(t, page.Features["status_enabled"])
		assert.False(t, page.Features["reports_enabled"])

		// The first page view provisions the record.
		_, err = env.store.Get(context.Background(), env.school.ID)
		assert.NoError(t, err)
	})

	t.Run("shows the cancellation banner and override flags", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{})
		env.school.FeatureOverrides = map[string]any{"reports_enabled": true}

		endsAt := time.Now().UTC().Add(48 * time.Hour)
		rec := billing.NewRecord(env.school.ID, env.school.Slug)
		rec.Plan = billing.PlanPro
		rec.CustomerID = "cus_1"
		rec.SubscriptionID = "sub_1"
		rec.SubscriptionStatus = "active"
		rec.CancelAtPeriodEnd = true
		rec.CurrentPeriodEnd = &endsAt
		require.NoError(t, env.store.Create(context.Background(), rec))

		resp, err := http.Get(env.srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		raw, err := json.Marshal(body.Data)
		require.NoError(t, err)
		var page billingmod.PageData
		require.NoError(t, json.Unmarshal(raw, &page))

		assert.Equal(t, "pro", page.Plan)
		assert.True(t, page.Features["reports_enabled"])
		require.NotNil(t, page.Cancellation)
		assert.Equal(t, endsAt.Format("2006-01-02"), page.Cancellation.EndsAt)
		assert.True(t, page.Cancellation.AtPeriodEnd)
		assert.False(t, page.Cancellation.Overdue)

		var current []string
		for _, opt := range page.Options {
			if opt.Current {
				current = append(current, opt.Key)
			}
		}
		assert.Equal(t, []string{"pro_monthly"}, current)
	})

	t.Run("requires a school", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		svc := billing.NewService(store, &stubProvider{}, testCatalog(t),
			billing.WithLogger(slog.New(slog.DiscardHandler)))
		mod := billingmod.NewModule(svc, billingmod.Config{},
			billingmod.WithLogger(slog.New(slog.DiscardHandler)))

		srv := httptest.NewServer(mod.Handle())
		t.Cleanup(srv.Close)

		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestModule_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("redirects to the hosted checkout", func(t *testing.T) {
		t.Parallel()

		var got billing.CheckoutSessionRequest
		provider := &stubProvider{
			checkout: func(_ context.Context, req billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
				got = req
				return &billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
			},
		}
		env := newModuleEnv(t, provider)

		resp := postForm(t, env.srv, "/checkout", url.Values{"price_id": {"price_pro"}})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://checkout.example/cs_1", resp.Header.Get("Location"))

		assert.Equal(t, env.school.ID.String(), got.TenantID)
		assert.Equal(t, "acme", got.TenantSlug)
		assert.Equal(t, "admin@acme.test", got.Email)
		assert.Equal(t, "price_pro", got.PriceID)
	})

	t.Run("rejects a price the catalog does not declare", func(t *testing.T) {
		t.Parallel()

		called := false
		provider := &stubProvider{
			checkout: func(context.Context, billing.CheckoutSessionRequest) (*billing.CheckoutSession, error) {
				called = true
				return &billing.CheckoutSession{URL: "https://checkout.example/cs_1"}, nil
			},
		}
		env := newModuleEnv(t, provider)

		resp := postForm(t, env.srv, "/checkout", url.Values{"price_id": {"price_forged"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.example/billing?error=unknown_price", resp.Header.Get("Location"))
		assert.False(t, called)
	})

	t.Run("requires a price id", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{})
		resp := postForm(t, env.srv, "/checkout", url.Values{})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.example/billing?error=missing_price", resp.Header.Get("Location"))
	})

	t.Run("redirects back when the processor is not configured", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{}, billingmod.WithProcessorConfigured(false))
		resp := postForm(t, env.srv, "/checkout", url.Values{"price_id": {"price_pro"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.example/billing?error=billing_not_configured", resp.Header.Get("Location"))
	})

	t.Run("redirects back on a processor failure", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{}) // nil checkout fn fails
		resp := postForm(t, env.srv, "/checkout", url.Values{"price_id": {"price_pro"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.example/billing?error=checkout_failed", resp.Header.Get("Location"))
	})
}

func TestModule_Portal(t *testing.T) {
	t.Parallel()

	t.Run("redirects to the portal session", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			portal: func(_ context.Context, req billing.PortalSessionRequest) (*billing.PortalSession, error) {
				return &billing.PortalSession{URL: "https://portal.example/ps_1"}, nil
			},
		}
		env := newModuleEnv(t, provider)

		rec := billing.NewRecord(env.school.ID, env.school.Slug)
		rec.CustomerID = "cus_1"
		require.NoError(t, env.store.Create(context.Background(), rec))

		resp := postForm(t, env.srv, "/portal", url.Values{})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://portal.example/ps_1", resp.Header.Get("Location"))
	})

	t.Run("redirects back when no checkout ever completed", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t, &stubProvider{})
		resp := postForm(t, env.srv, "/portal", url.Values{})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.example/billing?error=no_subscription", resp.Header.Get("Location"))
	})
}
