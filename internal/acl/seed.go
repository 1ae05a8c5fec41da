package acl

import (
	"context"

	"go.uber.org/zap"
)

// Seed is one default rule written by SeedDefaults.
type Seed struct {
	Roles   []string
	Method  string
	Route   string
	Comment string
}

var (
	everyone  = []string{"visitor", "user", "admin"}
	adminOnly = []string{"admin"}
)

// DefaultSeeds covers the routes the client needs before an operator has
// touched the table.  Generic /api/{table} routes are left to operators.
func DefaultSeeds() []Seed {
	seeds := []Seed{
		{everyone, "GET", "/api/availability", "availability view"},
		{everyone, "GET", "/api/login", "current user"},
		{everyone, "POST", "/api/login", "log in"},
		{everyone, "DELETE", "/api/login", "log out"},
	}
	for _, route := range []string{"/api/time_slots", "/api/menu_items"} {
		seeds = append(seeds,
			Seed{everyone, "GET", route, "read"},
			Seed{adminOnly, "POST", route, "admin create"},
			Seed{adminOnly, "PUT", route, "admin update"},
			Seed{adminOnly, "DELETE", route, "admin delete"},
		)
	}
	return seeds
}

// SeedDefaults writes every DefaultSeeds rule that is not yet present and
// returns the number inserted.
func SeedDefaults(ctx context.Context, s *Store) (int, error) {
	inserted := 0
	for _, sd := range DefaultSeeds() {
		ok, err := s.EnsureRule(ctx, sd.Roles, sd.Method, sd.Route, sd.Comment)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	zap.L().Info("acl seeded", zap.Int("inserted", inserted))
	return inserted, nil
}
