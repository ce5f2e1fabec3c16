package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	billingsvc "github.com/enrollkit/enrollkit/pkg/billing"
)

// maxWebhookBody bounds the payload size read from the processor. Real
// events are a few kilobytes; anything larger is rejected.
const maxWebhookBody = 64 << 10

// WebhookHandler receives processor webhook deliveries. It is mounted
// outside the tenant middleware and the access gate: the caller is the
// payment processor, not a school, and locked tenants must still be
// reachable by the events that unlock them.
//
// Only signature failures return 400. Every other outcome, including
// events the service ignores, is a 200 so the processor stops retrying.
type WebhookHandler struct {
	svc *billingsvc.Service
	log *slog.Logger
}

// NewWebhookHandler creates the webhook endpoint. Panics on a nil service
// to fail fast during initialization.
func NewWebhookHandler(svc *billingsvc.Service, opts ...Option) *WebhookHandler {
	if svc == nil {
		panic("billing webhook: Service is required")
	}

	// Reuse module options for the logger.
	m := &Module{svc: svc, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return &WebhookHandler{svc: svc, log: m.log}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := h.svc.HandleWebhook(r.Context(), payload, signature); err != nil {
		if errors.Is(err, billingsvc.ErrSignatureInvalid) || errors.Is(err, billingsvc.ErrMissingSecret) {
			h.log.WarnContext(r.Context(), "rejected webhook delivery", slog.Any("error", err))
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		// HandleWebhook only errors on trust failures today; treat anything
		// else as acknowledged to avoid a retry storm.
		h.log.ErrorContext(r.Context(), "webhook processing error", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
