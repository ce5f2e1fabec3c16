package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resolver extracts a school identifier from an HTTP request.
type Resolver interface {
	// Resolve extracts the school slug from the request.
	// Returns empty string if no identifier is found.
	Resolve(r *http.Request) (string, error)
}

// SubdomainResolver extracts the school slug from the request subdomain,
// e.g. "acme" from "acme.enrollkit.app".
type SubdomainResolver struct {
	// Suffix to strip from the host (e.g. ".enrollkit.app").
	// If empty, only the first subdomain part is used.
	Suffix string
}

// NewSubdomainResolver creates a new subdomain resolver.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

// Resolve extracts the school slug from the subdomain.
func (r *SubdomainResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	originalParts := strings.Split(host, ".")

	if r.Suffix != "" && strings.HasSuffix(host, r.Suffix) && len(host) > len(r.Suffix) {
		host = host[:len(host)-len(r.Suffix)]
	}

	parts := strings.Split(host, ".")
	if len(parts) == 0 || parts[0] == "" {
		return "", nil
	}

	slug := parts[0]
	if slug == "www" {
		if len(parts) > 1 {
			slug = parts[1]
		} else {
			return "", nil
		}
	}

	// A bare domain like enrollkit.app carries no school.
	if len(originalParts) < 3 {
		return "", nil
	}

	return slug, nil
}

// HeaderResolver extracts the school slug from an HTTP header. Useful for
// API clients and internal tooling.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a new header resolver.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-School-Slug"
	}
	return &HeaderResolver{HeaderName: headerName}
}

// Resolve extracts the school slug from the configured header.
func (r *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return req.Header.Get(r.HeaderName), nil
}

// PathResolver extracts the school slug from a URL path segment.
type PathResolver struct {
	// Position is the 1-based position in the path (e.g. 2 for /schools/{slug}/...).
	Position int
}

// NewPathResolver creates a new path resolver.
func NewPathResolver(position int) *PathResolver {
	return &PathResolver{Position: position}
}

// Resolve extracts the school slug from the specified path position.
func (r *PathResolver) Resolve(req *http.Request) (string, error) {
	if r.Position < 1 {
		return "", errors.New("invalid path position")
	}

	path := strings.TrimPrefix(req.URL.Path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "", nil
	}

	parts := strings.Split(path, "/")
	if r.Position > len(parts) {
		return "", nil
	}
	return parts[r.Position-1], nil
}

// CompositeResolver tries multiple resolvers in order until one succeeds.
type CompositeResolver struct {
	Resolvers []Resolver
}

// NewCompositeResolver creates a new composite resolver.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

// Resolve tries each resolver in order, returning the first non-empty result.
func (c *CompositeResolver) Resolve(r *http.Request) (string, error) {
	var errs []error
	for _, resolver := range c.Resolvers {
		slug, err := resolver.Resolve(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if slug != "" {
			return slug, nil
		}
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("composite resolver errors: %w", errors.Join(errs...))
	}
	return "", nil
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}
