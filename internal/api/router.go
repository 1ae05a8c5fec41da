// internal/api/router.go
//
// chi router for the JSON API.
//
// Middleware order
// ----------------
//
//	RequestID → requestinfo.Enrich (access log, latency) → Recoverer →
//	Security headers → [ForceHTTPS] → session lookup → ACL (under /api)
//
// The ACL check runs before any handler so a denied call never touches the
// gateway.  /metrics and /healthz sit outside /api and skip it.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/bistro/internal/acl"
	"github.com/yanizio/bistro/internal/availability"
	"github.com/yanizio/bistro/internal/gateway"
	"github.com/yanizio/bistro/internal/middleware"
	"github.com/yanizio/bistro/internal/requestinfo"
	"github.com/yanizio/bistro/internal/session"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	DB         *sqlx.DB
	Gateway    *gateway.Gateway
	Aggregator *availability.Aggregator
	Sessions   *session.Store
	Cookies    session.Cookies
	ACL        *acl.Resolver
	ForceHTTPS bool
}

type handlers struct {
	gw       *gateway.Gateway
	agg      *availability.Aggregator
	sessions *session.Store
	cookies  session.Cookies
}

// NewRouter returns the root handler.
func NewRouter(d Deps) http.Handler {
	h := &handlers{gw: d.Gateway, agg: d.Aggregator, sessions: d.Sessions, cookies: d.Cookies}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestinfo.Enrich)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	if d.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Use(session.Middleware(d.Sessions, d.Cookies))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := d.DB.PingContext(req.Context()); err != nil {
			writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(acl.Middleware(d.ACL))

		r.Get("/availability", h.availability)

		r.Get("/login", h.currentUser)
		r.Post("/login", h.login)
		r.Delete("/login", h.logout)

		r.Get("/{table}", h.list)
		r.Post("/{table}", h.create)
		r.Get("/{table}/{id}", h.get)
		r.Put("/{table}/{id}", h.update)
		r.Patch("/{table}/{id}", h.update)
		r.Delete("/{table}/{id}", h.remove)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}
