package core

import (
	"log/slog"
	"net/http"
)

// Response renders itself to the HTTP response writer. Handlers return a
// Response instead of writing directly, so rendering and error mapping stay
// in one place.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes the response, logging render failures. Use it as the final
// call of an HTTP handler.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if resp == nil {
		resp = JSONError(ErrInternalServerError)
	}
	if err := resp.Render(w, r); err != nil {
		slog.ErrorContext(r.Context(), "failed to render response", slog.Any("error", err))
	}
}
