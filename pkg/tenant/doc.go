// Package tenant carries school identity through HTTP requests.
//
// A Resolver extracts the school slug from a request (subdomain, header, or
// path segment), the Middleware loads the school through a Provider and
// stores it in the request context, and FromContext retrieves it downstream.
// The middleware never caches: every request sees current state.
package tenant
