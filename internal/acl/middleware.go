// internal/acl/middleware.go
//
// Chi middleware that enforces the rule table on every request.

package acl

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/auth"
)

// Middleware checks (role, method, route) for each request before the
// handler runs.  The role comes from the identity placed in the context
// by the session middleware; anonymous callers are "visitor".  Denials
// answer 405 with a JSON error body.
func Middleware(r *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			role := auth.FromContext(req.Context()).Role()
			route := RouteKey(req.URL.Path)

			if !r.IsAllowed(req.Context(), role, req.Method, route) {
				zap.L().Info("acl denied",
					zap.String("role", role),
					zap.String("method", req.Method),
					zap.String("route", route))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusMethodNotAllowed)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not allowed."})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
