package snapshot

import (
	"net/http"
	"strings"
)

// RequestFilter decides whether a request may be served from and
// written to the cache. Filters run only after the built-in method and
// range checks have passed.
type RequestFilter interface {
	Allow(req *http.Request) bool
}

// FilterFunc adapts a plain function to a RequestFilter.
type FilterFunc func(req *http.Request) bool

// Allow implements RequestFilter.
func (f FilterFunc) Allow(req *http.Request) bool { return f(req) }

// allowAll is the default filter.
type allowAll struct{}

func (allowAll) Allow(*http.Request) bool { return true }

// RequestCacheable reports whether req is eligible for the cache:
// a GET without a Range header that the filter accepts. Range requests
// are excluded because a stored full-body snapshot cannot answer a
// partial-content request correctly.
func RequestCacheable(req *http.Request, filter RequestFilter) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.Header.Get("Range") != "" {
		return false
	}
	return filter.Allow(req)
}

// ResponseCacheable reports whether resp may be stored: status must be
// exactly 200 and Cache-Control must not carry a no-cache directive.
// An absent header counts as cacheable. Other directives (no-store,
// private, max-age=0) are deliberately not inspected.
func ResponseCacheable(resp *http.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	return !hasNoCacheDirective(resp.Header.Get("Cache-Control"))
}

// hasNoCacheDirective scans a Cache-Control value for the no-cache
// directive, including its qualified no-cache="..." form.
func hasNoCacheDirective(cacheControl string) bool {
	if cacheControl == "" {
		return false
	}
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		if directive == "no-cache" || strings.HasPrefix(directive, "no-cache=") {
			return true
		}
	}
	return false
}
