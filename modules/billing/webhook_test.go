package billing_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingmod "github.com/enrollkit/enrollkit/modules/billing"
	"github.com/enrollkit/enrollkit/pkg/billing"
)

func newWebhookServer(t *testing.T, store billing.RecordStore, provider billing.Provider) *httptest.Server {
	t.Helper()
	svc := billing.NewService(store, provider, testCatalog(t),
		billing.WithLogger(slog.New(slog.DiscardHandler)))
	h := billingmod.NewWebhookHandler(svc,
		billingmod.WithLogger(slog.New(slog.DiscardHandler)))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	t.Run("rejects an unsigned delivery without touching the store", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		rec := billing.NewRecord(uuid.New(), "acme")
		require.NoError(t, store.Create(context.Background(), rec))

		provider := &stubProvider{
			verify: func(payload []byte, signature string) (*billing.Event, error) {
				if signature != "" {
					t.Errorf("unexpected signature %q", signature)
				}
				return nil, billing.ErrSignatureInvalid
			},
		}
		srv := newWebhookServer(t, store, provider)

		resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"type":"customer.subscription.deleted"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		after, err := store.Get(context.Background(), rec.TenantID)
		require.NoError(t, err)
		assert.True(t, after.IsActive)
		assert.Equal(t, rec.Plan, after.Plan)
	})

	t.Run("rejects when the signing secret is missing", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			verify: func([]byte, string) (*billing.Event, error) {
				return nil, billing.ErrMissingSecret
			},
		}
		srv := newWebhookServer(t, billing.NewMemoryStore(), provider)

		req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("acknowledges a verified event and applies it", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		rec := billing.NewRecord(uuid.New(), "acme")
		rec.CustomerID = "cus_1"
		rec.SubscriptionID = "sub_1"
		rec.SubscriptionStatus = "active"
		require.NoError(t, store.Create(context.Background(), rec))

		provider := &stubProvider{
			verify: func(payload []byte, signature string) (*billing.Event, error) {
				assert.Equal(t, "t=1,v1=deadbeef", signature)
				return &billing.Event{
					Type:           billing.EventSubscriptionDeleted,
					SubscriptionID: "sub_1",
				}, nil
			},
		}
		srv := newWebhookServer(t, store, provider)

		req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "ok", string(body))

		after, err := store.Get(context.Background(), rec.TenantID)
		require.NoError(t, err)
		assert.False(t, after.IsActive)
	})

	t.Run("acknowledges events the engine ignores", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			verify: func([]byte, string) (*billing.Event, error) {
				return &billing.Event{Type: billing.EventType("invoice.paid")}, nil
			},
		}
		srv := newWebhookServer(t, billing.NewMemoryStore(), provider)

		req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("only accepts POST", func(t *testing.T) {
		t.Parallel()

		srv := newWebhookServer(t, billing.NewMemoryStore(), &stubProvider{})
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
