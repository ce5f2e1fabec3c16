package tenant

import (
	"net/http"
	"strings"
)

// Middleware resolves the school for each request and adds it to the
// request context. Resolution hits the provider on every request; there is
// deliberately no cache here, because access decisions downstream must see
// billing mutations immediately.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slug, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			// No identifier: continue without a school in context.
			if slug == "" {
				next.ServeHTTP(w, r)
				return
			}

			school, err := provider.GetBySlug(r.Context(), slug)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := WithSchool(r.Context(), school)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSchool ensures a school is present in the context. Mount it on
// routes that cannot serve without a tenant.
func RequireSchool(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			school, ok := FromContext(r.Context())
			if !ok || school == nil {
				errorHandler(w, r, ErrNoSchoolInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
