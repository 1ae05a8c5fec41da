// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info and writes one
// access-log line when the handler returns.
/*
Context
--------
Enrich sits directly after chi's RequestID.  For every request it:

  1. Parses the User-Agent header.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Looks up the country when a GeoLite2 database is loaded.
  4. Serves the request through a status-capturing writer and logs method,
     path, route pattern, status, latency, and the fields above.

The latency is also observed on `http_request_duration_seconds` with the
chi route pattern as label, so ids never explode cardinality.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/metrics"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich attaches *Info, serves next, and logs the outcome.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		info := &Info{IP: ip, Country: lookupCountry(ip), UA: parseUA(r.UserAgent())}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := routePattern(r)

		metrics.HTTPDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		zap.L().Info("http",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", elapsed),
			zap.Stringer("ip", info.IP),
			zap.String("country", info.Country),
			zap.String("browser", info.UA.Browser),
			zap.String("device", info.UA.Device),
			zap.Bool("bot", info.UA.IsBot),
		)
	})
}

// routePattern returns the matched chi pattern once routing has finished.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
