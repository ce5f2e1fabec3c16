package billing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/enrollkit/enrollkit/pkg/billing"
)

const testWebhookSecret = "whsec_test"

func signPayload(t *testing.T, payload []byte) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
}

func newTestProvider(t *testing.T, secret string) *billing.StripeProvider {
	t.Helper()
	p, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: secret,
	})
	require.NoError(t, err)
	return p
}

func TestStripeConfig_Configured(t *testing.T) {
	t.Parallel()

	assert.True(t, billing.StripeConfig{SecretKey: "sk", PublishableKey: "pk"}.Configured())
	assert.False(t, billing.StripeConfig{SecretKey: "sk"}.Configured())
	assert.False(t, billing.StripeConfig{}.Configured())
}

func TestNewStripeProvider_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.StripeConfig{})
	assert.ErrorIs(t, err, billing.ErrMissingAPIKey)
}

func TestStripeProvider_VerifyWebhook(t *testing.T) {
	t.Parallel()

	t.Run("missing secret fails closed", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, "")
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
		_, err := p.VerifyWebhook(payload, signPayload(t, payload))
		assert.ErrorIs(t, err, billing.ErrMissingSecret)
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
		_, err := p.VerifyWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
		header := signPayload(t, payload)
		tampered := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{}}}`)
		_, err := p.VerifyWebhook(tampered, header)
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("normalizes checkout session", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{
			"id": "evt_1",
			"api_version": "2023-10-16",
			"type": "checkout.session.completed",
			"data": {"object": {
				"customer": "cus_123",
				"subscription": "sub_456",
				"metadata": {"school_slug": "acme", "school_id": "11111111-1111-1111-1111-111111111111"},
				"line_items": {"data": [{"price": {"id": "price_starter_monthly"}}]}
			}}
		}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, ev.Type)
		assert.Equal(t, "acme", ev.TenantSlug)
		assert.Equal(t, "cus_123", ev.CustomerID)
		assert.Equal(t, "sub_456", ev.SubscriptionID)
		assert.Equal(t, "price_starter_monthly", ev.PriceID)
	})

	t.Run("checkout session without expanded line items", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{
			"id": "evt_1",
			"api_version": "2023-10-16",
			"type": "checkout.session.completed",
			"data": {"object": {
				"customer": "cus_123",
				"subscription": "sub_456",
				"metadata": {"school_slug": "acme"}
			}}
		}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		assert.Empty(t, ev.PriceID, "price must stay empty so the caller falls back to a subscription lookup")
	})

	t.Run("normalizes subscription update", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{
			"id": "evt_2",
			"api_version": "2023-10-16",
			"type": "customer.subscription.updated",
			"data": {"object": {
				"id": "sub_456",
				"status": "active",
				"metadata": {"school_slug": "acme"},
				"cancel_at": 1756339200,
				"cancel_at_period_end": true,
				"current_period_end": 1756339200,
				"items": {"data": [{"price": {"id": "price_starter_monthly"}}]}
			}}
		}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionUpdated, ev.Type)
		assert.Equal(t, "sub_456", ev.SubscriptionID)
		assert.Equal(t, "active", ev.Status)
		assert.Equal(t, "price_starter_monthly", ev.PriceID)
		assert.True(t, ev.CancelAtPeriodEnd)
		require.NotNil(t, ev.CancelAt)
		assert.Equal(t, time.Unix(1756339200, 0).UTC(), *ev.CancelAt)
		require.NotNil(t, ev.CurrentPeriodEnd)
	})

	t.Run("period end read from subscription item when absent on the subscription", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{
			"id": "evt_3",
			"api_version": "2023-10-16",
			"type": "customer.subscription.updated",
			"data": {"object": {
				"id": "sub_456",
				"status": "active",
				"items": {"data": [{"price": {"id": "price_starter_monthly"}, "current_period_end": 1756339200}]}
			}}
		}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		require.NotNil(t, ev.CurrentPeriodEnd)
		assert.Equal(t, time.Unix(1756339200, 0).UTC(), *ev.CurrentPeriodEnd)
	})

	t.Run("zero timestamps mean unset", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{
			"id": "evt_4",
			"api_version": "2023-10-16",
			"type": "customer.subscription.deleted",
			"data": {"object": {
				"id": "sub_456",
				"status": "canceled",
				"cancel_at": 0,
				"current_period_end": 0
			}}
		}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionDeleted, ev.Type)
		assert.Nil(t, ev.CancelAt)
		assert.Nil(t, ev.CurrentPeriodEnd)
	})

	t.Run("unknown event types pass through", func(t *testing.T) {
		t.Parallel()

		p := newTestProvider(t, testWebhookSecret)
		payload := []byte(`{"id":"evt_5","api_version":"2023-10-16","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)

		ev, err := p.VerifyWebhook(payload, signPayload(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventType("invoice.paid"), ev.Type)
		assert.Empty(t, ev.SubscriptionID)
	})
}
