package accessgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/enrollkit/enrollkit/pkg/billing"
	"github.com/enrollkit/enrollkit/pkg/tenant"
)

// DefaultAllowedPrefixes are the paths a locked school may still reach:
// the billing self-service surface and logout.
var DefaultAllowedPrefixes = []string{"/billing", "/logout"}

// Decide is the pure gate predicate. Superusers always pass. A locked
// record denies everything except the allowed path prefixes.
func Decide(actor Actor, rec billing.Record, path string, allowedPrefixes []string) bool {
	if actor.Superuser {
		return true
	}
	if rec.IsActive {
		return true
	}
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Gate evaluates the access policy against live billing state.
type Gate struct {
	store           billing.RecordStore
	log             *slog.Logger
	allowedPrefixes []string
	denied          http.Handler
}

// Option configures the gate.
type Option func(*Gate)

// WithAllowedPrefixes replaces the path prefixes a locked school may reach.
func WithAllowedPrefixes(prefixes ...string) Option {
	return func(g *Gate) {
		g.allowedPrefixes = prefixes
	}
}

// WithDeniedHandler replaces the response served on denial. The default
// redirects to the billing page so the school can re-subscribe.
func WithDeniedHandler(h http.Handler) Option {
	return func(g *Gate) {
		g.denied = h
	}
}

// New creates the gate. Panics on a nil store.
func New(store billing.RecordStore, log *slog.Logger, opts ...Option) *Gate {
	if store == nil {
		panic("accessgate: RecordStore is required")
	}
	if log == nil {
		log = slog.Default()
	}

	g := &Gate{
		store:           store,
		log:             log,
		allowedPrefixes: DefaultAllowedPrefixes,
		denied: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/billing", http.StatusSeeOther)
		}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow reports whether the caller may reach path for the given school.
// The record is read fresh; there is no cache by contract.
func (g *Gate) Allow(ctx context.Context, school *tenant.School, path string) (bool, error) {
	actor := ActorFromContext(ctx)
	if actor.Superuser {
		return true, nil
	}
	if school == nil {
		return true, nil
	}

	rec, err := g.store.Get(ctx, school.ID)
	if err != nil {
		if errors.Is(err, billing.ErrRecordNotFound) {
			// A school without a billing record has never been locked.
			return true, nil
		}
		return false, err
	}

	return Decide(actor, rec, path, g.allowedPrefixes), nil
}

// Middleware enforces the gate on every request that carries a school.
// Requests without a school in context pass through untouched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		school, ok := tenant.FromContext(r.Context())
		if !ok || school == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := g.Allow(r.Context(), school, r.URL.Path)
		if err != nil {
			g.log.ErrorContext(r.Context(), "access gate lookup failed",
				slog.String("school", school.Slug),
				slog.Any("error", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			g.denied.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
