// Package core provides the shared HTTP response vocabulary: the Response
// interface, JSON and redirect renderers, and typed HTTP errors.
package core
