package acl

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/bistro/internal/metrics"
)

// RuleSource is what the Resolver needs from storage.  *Store satisfies it.
type RuleSource interface {
	Rules(ctx context.Context, route, method string) ([]Rule, error)
}

// Resolver decides whether a role may call method on route.  With
// enabled=false every call is allowed; the flag comes from `acl.enabled`.
type Resolver struct {
	src     RuleSource
	enabled bool
	group   singleflight.Group
}

// NewResolver returns a Resolver over src.
func NewResolver(src RuleSource, enabled bool) *Resolver {
	return &Resolver{src: src, enabled: enabled}
}

// Enabled reports whether rules are enforced.
func (r *Resolver) Enabled() bool { return r.enabled }

// IsAllowed grants access iff some rule for (route, method) has allow =
// "allow", a true match expression, and lists role.  No rule means deny.
// A storage error denies and is logged.
func (r *Resolver) IsAllowed(ctx context.Context, role, method, route string) bool {
	if !r.enabled {
		metrics.ACLDecisions.WithLabelValues("bypass").Inc()
		return true
	}
	method = strings.ToUpper(method)

	// Concurrent identical lookups share one query; nothing is cached
	// beyond the in-flight call.  The shared query is detached from the
	// caller that started it, and each caller waits on its own context.
	ch := r.group.DoChan(method+" "+route, func() (any, error) {
		return r.src.Rules(context.WithoutCancel(ctx), route, method)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		zap.L().Error("acl lookup", zap.String("route", route), zap.String("method", method), zap.Error(err))
		metrics.ACLDecisions.WithLabelValues("error").Inc()
		return false
	}

	for _, rule := range v.([]Rule) {
		if !grants(rule, role) {
			continue
		}
		metrics.ACLDecisions.WithLabelValues("allow").Inc()
		return true
	}
	metrics.ACLDecisions.WithLabelValues("deny").Inc()
	return false
}

func grants(rule Rule, role string) bool {
	if !strings.EqualFold(strings.TrimSpace(rule.Allow), "allow") {
		return false
	}
	if !matchTrue(rule.Match) {
		return false
	}
	for _, r := range rule.Roles() {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// matchTrue evaluates a rule's match expression.  Only the literal "true"
// (or an empty expression) matches; anything else is treated as false.
func matchTrue(expr string) bool {
	expr = strings.TrimSpace(expr)
	return expr == "" || strings.EqualFold(expr, "true")
}

// RouteKey maps a request path to the route stored in rules: a trailing
// numeric id segment is dropped, so /api/time_slots/3 becomes
// /api/time_slots.
func RouteKey(path string) string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return path
	}
	if isDigits(path[i+1:]) {
		return path[:i]
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
