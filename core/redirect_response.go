package core

import (
	"net/http"
	"net/url"
)

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect creates a redirect response with status 303 (See Other).
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}

// RedirectWithCode creates a redirect response with a specific status code.
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{url: url, code: code}
}

type redirectBackResponse struct {
	fallback string
	code     int
}

func (r redirectBackResponse) Render(w http.ResponseWriter, req *http.Request) error {
	target := r.fallback
	// Same-host referrers only; anything else is an open-redirect vector.
	if referer := req.Header.Get("Referer"); referer != "" && isSameHostURL(referer, req) {
		target = referer
	}
	http.Redirect(w, req, target, r.code)
	return nil
}

// RedirectBack redirects to the referrer when it points at the same host,
// otherwise to the fallback URL. Uses status 303 (See Other).
func RedirectBack(fallback string) Response {
	return redirectBackResponse{fallback: fallback, code: http.StatusSeeOther}
}

func isSameHostURL(urlStr string, r *http.Request) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	// Empty host means a relative URL.
	return parsed.Host == "" || parsed.Host == r.Host
}
