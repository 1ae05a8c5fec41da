package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(ok)

	tests := []struct {
		host, proto string
		want        int
	}{
		{"bistro.example.com", "", http.StatusPermanentRedirect},
		{"bistro.example.com", "https", http.StatusOK},
		{"localhost:8080", "", http.StatusOK},
		{"[::1]:8080", "", http.StatusOK},
	}
	for _, tc := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/api/tables?limit=1", nil)
		if tc.proto != "" {
			r.Header.Set("X-Forwarded-Proto", tc.proto)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != tc.want {
			t.Errorf("%s proto=%q: status %d, want %d", tc.host, tc.proto, rec.Code, tc.want)
		}
		if tc.want == http.StatusPermanentRedirect {
			if loc := rec.Header().Get("Location"); loc != "https://bistro.example.com/api/tables?limit=1" {
				t.Errorf("Location %q", loc)
			}
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, k := range []string{"Strict-Transport-Security", "X-Frame-Options", "X-Content-Type-Options", "Cache-Control"} {
		if rec.Header().Get(k) == "" {
			t.Errorf("missing %s", k)
		}
	}
}
