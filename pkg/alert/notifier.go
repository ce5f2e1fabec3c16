package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Alert is the payload delivered to the operator endpoint.
type Alert struct {
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Config declares the alert endpoint from the environment. An empty URL
// means alerting is disabled.
type Config struct {
	URL        string        `env:"ALERT_WEBHOOK_URL"`
	Secret     string        `env:"ALERT_WEBHOOK_SECRET"`
	Timeout    time.Duration `env:"ALERT_TIMEOUT" envDefault:"10s"`
	MaxRetries int           `env:"ALERT_MAX_RETRIES" envDefault:"3"`
}

// Notifier posts signed JSON alerts with retries. It satisfies the
// billing.AlertNotifier interface.
type Notifier struct {
	url        string
	secret     string
	source     string
	maxRetries int
	backoff    func(attempt int) time.Duration
	client     *http.Client
}

// Option configures the notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		if client != nil {
			n.client = client
		}
	}
}

// WithSource sets the source tag stamped on every alert.
func WithSource(source string) Option {
	return func(n *Notifier) {
		n.source = source
	}
}

// WithBackoff replaces the retry delay function.
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(n *Notifier) {
		if backoff != nil {
			n.backoff = backoff
		}
	}
}

// NewNotifier creates a notifier for the configured endpoint.
func NewNotifier(cfg Config, opts ...Option) (*Notifier, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: an http(s) URL is required", ErrInvalidURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	n := &Notifier{
		url:        cfg.URL,
		secret:     cfg.Secret,
		source:     "enrollkit",
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Second << (attempt - 1)
		},
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify delivers one alert. Retries transient failures with backoff;
// 4xx responses are treated as permanent and fail immediately.
func (n *Notifier) Notify(ctx context.Context, severity, message string) error {
	payload, err := json.Marshal(Alert{
		Severity:  severity,
		Message:   message,
		Source:    n.source,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff(attempt)):
			}
		}

		status, err := n.deliver(ctx, payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if status >= 400 && status < 500 {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, n.maxRetries+1, lastErr)
}

func (n *Notifier) deliver(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	if n.secret != "" {
		for k, v := range SignPayload(n.secret, payload).Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, body)
	}
	return resp.StatusCode, nil
}
