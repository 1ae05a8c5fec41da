// internal/auth/context.go
//
// Caller identity and the explicit per-request context.
//
// Usage
// -----
//
//	// session middleware, after resolving the cookie
//	ctx = auth.WithIdentity(ctx, &auth.Identity{ID: 7, Role: auth.RoleUser})
//
//	// handlers build the explicit value and pass it down
//	rc := auth.FromContext(r.Context())
//	rows, err := gw.List(ctx, rc, "bookings", r.URL.Query())
//
// Notes
// -----
// • A nil Identity means anonymous; its role is "visitor".
// • Gateway and aggregator never read the context key themselves.  They
//   receive RequestContext as a parameter.
package auth

import "context"

// Role names stored in users.role and acl.userRoles.
const (
	RoleVisitor = "visitor"
	RoleUser    = "user"
	RoleAdmin   = "admin"
)

// Identity is the logged-in user.  Password hashes never reach this type.
type Identity struct {
	ID        int64  `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"firstName" db:"firstName"`
	LastName  string `json:"lastName" db:"lastName"`
	Role      string `json:"role" db:"role"`
}

// RequestContext carries the resolved caller into gateway and aggregator
// calls.  The zero value is an anonymous caller.
type RequestContext struct {
	User *Identity
}

// Anonymous reports whether no user is logged in.
func (rc RequestContext) Anonymous() bool { return rc.User == nil }

// IsAdmin reports whether the caller has the admin role.
func (rc RequestContext) IsAdmin() bool {
	return rc.User != nil && rc.User.Role == RoleAdmin
}

// Role returns the caller's role, "visitor" when anonymous or blank.
func (rc RequestContext) Role() string {
	if rc.User == nil || rc.User.Role == "" {
		return RoleVisitor
	}
	return rc.User.Role
}

// identityKey is unexported to avoid context-key collisions.
type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext builds the RequestContext for ctx.  Missing identity yields
// an anonymous caller.
func FromContext(ctx context.Context) RequestContext {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return RequestContext{User: id}
}
