package snapshot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestCacheable(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header map[string]string
		filter RequestFilter
		want   bool
	}{
		{
			name:   "plain GET",
			method: http.MethodGet,
			want:   true,
		},
		{
			name:   "POST",
			method: http.MethodPost,
			want:   false,
		},
		{
			name:   "HEAD",
			method: http.MethodHead,
			want:   false,
		},
		{
			name:   "DELETE",
			method: http.MethodDelete,
			want:   false,
		},
		{
			name:   "GET with range header",
			method: http.MethodGet,
			header: map[string]string{"Range": "bytes=0-1023"},
			want:   false,
		},
		{
			name:   "GET rejected by filter",
			method: http.MethodGet,
			filter: FilterFunc(func(*http.Request) bool { return false }),
			want:   false,
		},
		{
			name:   "GET accepted by path filter",
			method: http.MethodGet,
			filter: FilterFunc(func(r *http.Request) bool {
				return strings.HasPrefix(r.URL.Path, "/v1/")
			}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "https://api.example.com/v1/things", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			filter := tt.filter
			if filter == nil {
				filter = allowAll{}
			}
			if got := RequestCacheable(req, filter); got != tt.want {
				t.Errorf("RequestCacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponseCacheable(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		cacheControl string
		want         bool
	}{
		{"200 no cache-control", 200, "", true},
		{"200 public", 200, "public, max-age=300", true},
		{"200 no-cache", 200, "no-cache", false},
		{"200 no-cache among others", 200, "private, no-cache, max-age=0", false},
		{"200 qualified no-cache", 200, `no-cache="set-cookie"`, false},
		{"200 no-store only", 200, "no-store", true},
		{"200 max-age zero only", 200, "max-age=0", true},
		{"200 uppercase no-cache", 200, "No-Cache", false},
		{"301 redirect", 301, "", false},
		{"206 partial content", 206, "", false},
		{"404 not found", 404, "", false},
		{"500 server error", 500, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     http.Header{},
			}
			if tt.cacheControl != "" {
				resp.Header.Set("Cache-Control", tt.cacheControl)
			}
			if got := ResponseCacheable(resp); got != tt.want {
				t.Errorf("ResponseCacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}
