// internal/acl/store.go
//
// Persistence for access-control rules.
//
// Context
// -------
// Rules live in the `acl` table of the application database:
//
//	acl (id PK, userRoles, method, allow, route, match, comment)
//
// `userRoles` is a comma-separated role set ("visitor,user,admin").  A rule
// applies to exactly one (route, method) pair.  The Store answers two
// questions:
//  1. Which rules exist for route + method?            → `Rules()`
//  2. Seed a rule unless that pair is already covered? → `EnsureRule()`
//
// Notes
// -----
// • `match` is a reserved word in MySQL, so every identifier is quoted.
// • EnsureRule never overwrites; operators own the table once seeded.
package acl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Rule is one row of the acl table.
type Rule struct {
	ID        int64  `db:"id"        json:"id"`
	UserRoles string `db:"userRoles" json:"userRoles"`
	Method    string `db:"method"    json:"method"`
	Allow     string `db:"allow"     json:"allow"`
	Route     string `db:"route"     json:"route"`
	Match     string `db:"match"     json:"match"`
	Comment   string `db:"comment"   json:"comment"`
}

// Roles splits UserRoles into trimmed, non-empty names.
func (r Rule) Roles() []string {
	parts := strings.Split(r.UserRoles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Store reads and seeds ACL rules.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps db.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

const selectRules = "SELECT `id`, `userRoles`, `method`, `allow`, `route`, " +
	"COALESCE(`match`, '') AS `match`, COALESCE(`comment`, '') AS `comment` " +
	"FROM `acl` WHERE `route` = ? AND `method` = ? ORDER BY `id`"

// Rules returns every rule whose route and method equal the arguments.
func (s *Store) Rules(ctx context.Context, route, method string) ([]Rule, error) {
	rules := make([]Rule, 0, 4)
	if err := s.db.SelectContext(ctx, &rules, s.db.Rebind(selectRules), route, strings.ToUpper(method)); err != nil {
		return nil, fmt.Errorf("acl rules %s %s: %w", method, route, err)
	}
	return rules, nil
}

// EnsureRule inserts an allow rule for (route, method) unless one already
// exists.  It reports whether a row was written.  The count and insert run
// in one transaction.
func (s *Store) EnsureRule(ctx context.Context, roles []string, method, route, comment string) (bool, error) {
	method = strings.ToUpper(method)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("acl begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var n int
	if err := tx.GetContext(ctx, &n,
		tx.Rebind("SELECT COUNT(*) FROM `acl` WHERE `route` = ? AND `method` = ?"),
		route, method); err != nil {
		return false, fmt.Errorf("acl count %s %s: %w", method, route, err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO `acl` (`userRoles`, `method`, `allow`, `route`, `match`, `comment`) "+
			"VALUES (?, ?, 'allow', ?, 'true', ?)"),
		strings.Join(roles, ","), method, route, comment); err != nil {
		return false, fmt.Errorf("acl insert %s %s: %w", method, route, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("acl commit: %w", err)
	}
	return true, nil
}
