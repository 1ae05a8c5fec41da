// internal/gateway/gateway.go
//
// Generic table gateway.
//
// Context
// -------
// One Gateway serves CRUD for every table in the schema registry.  The
// table name comes from the URL, is resolved through the registry, and is
// only ever written into SQL in its canonical, back-quoted form.  Values
// travel as named parameters.
//
// `bookings` is the single special case: rows have an owner (`userId`) and
// non-admin callers may only see or touch their own rows.  Every other
// table skips ownership entirely; the ACL middleware governs those.
//
// Atomicity
// ---------
// Inserts report the engine's LastInsertId from the same statement, and
// every read-check-write sequence (update, delete, insert then re-read)
// runs inside one transaction.  On MySQL the ownership read in update and
// delete is `SELECT ... FOR UPDATE`, so a concurrent reassignment waits for
// the transaction instead of landing between the check and the write.
// SQLite connections are pinned to one, which serialises them anyway.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/metrics"
	"github.com/yanizio/bistro/internal/schema"
)

var (
	// ErrLoginRequired: the operation needs a logged-in caller.
	ErrLoginRequired = errors.New("login required")
	// ErrForbidden: logged in, but not the owner and not an admin.
	ErrForbidden = errors.New("not allowed")
	// ErrNotFound: no row with the requested id.
	ErrNotFound = errors.New("not found")
)

// ownerColumn holds the owning user id on owned tables.
const ownerColumn = "userId"

// defaultStatus is applied to new bookings without a status.
const defaultStatus = "booked"

// Gateway executes CRUD against registered tables.  Safe for concurrent
// use; it holds no per-request state.
type Gateway struct {
	db  *sqlx.DB
	reg *schema.Registry
}

// New returns a Gateway over db restricted to the tables in reg.
func New(db *sqlx.DB, reg *schema.Registry) *Gateway {
	return &Gateway{db: db, reg: reg}
}

// owned reports whether t carries per-row ownership.
func owned(t *schema.Table) bool {
	return strings.EqualFold(t.Name, schema.TableBookings)
}

// checkOwner enforces ownership on a located row.  Admins pass.
func checkOwner(rc auth.RequestContext, t *schema.Table, row schema.Row) error {
	if rc.IsAdmin() {
		return nil
	}
	if rc.Anonymous() {
		return ErrLoginRequired
	}
	owner, err := schema.ToInt64(row[ownerColumn])
	if err != nil || owner != rc.User.ID {
		zap.L().Warn("ownership check failed",
			zap.String("table", t.Name),
			zap.Any("row_id", row["id"]),
			zap.Int64("caller", rc.User.ID))
		return ErrForbidden
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, schema.Invalid("id", "must be an integer")
	}
	return id, nil
}

/*──────────────────────────── SQL helpers ──────────────────────────────────*/

// queryRows runs a SELECT and scrubs each row.  The result is never nil so
// it encodes as `[]`.
func queryRows(ctx context.Context, q sqlx.QueryerContext, t *schema.Table, query string, args ...any) ([]schema.Row, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schema.Row, 0, 8)
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		out = append(out, t.Scrub(schema.Row(m)))
	}
	return out, rows.Err()
}

// getByID fetches one row or ErrNotFound.  Hidden columns are scrubbed.
func getByID(ctx context.Context, q sqlx.QueryerContext, t *schema.Table, id int64) (schema.Row, error) {
	return selectByID(ctx, q, t, id, "")
}

// lockByID is getByID holding a row lock until tx ends.  SQLite has no
// FOR UPDATE and needs none.
func lockByID(ctx context.Context, tx *sqlx.Tx, t *schema.Table, id int64) (schema.Row, error) {
	suffix := ""
	if tx.DriverName() == string(schema.MySQL) {
		suffix = " FOR UPDATE"
	}
	return selectByID(ctx, tx, t, id, suffix)
}

func selectByID(ctx context.Context, q sqlx.QueryerContext, t *schema.Table, id int64, suffix string) (schema.Row, error) {
	rows, err := queryRows(ctx, q,
		t, "SELECT * FROM "+schema.Quote(t.Name)+" WHERE `id` = ?"+suffix, id)
	if err != nil {
		return nil, fmt.Errorf("select %s %d: %w", t.Name, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// inTx runs fn in a transaction, committing on nil and rolling back
// otherwise.
func (g *Gateway) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// named compiles `:name` placeholders into the driver's bindvar form.
func (g *Gateway) named(query string, args map[string]any) (string, []any, error) {
	q, list, err := sqlx.Named(query, args)
	if err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}
	return g.db.Rebind(q), list, nil
}

/*──────────────────────────── metrics ──────────────────────────────────────*/

func observe(table, op string, err error) {
	metrics.GatewayOperations.WithLabelValues(table, op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLoginRequired):
		return "login_required"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case schema.IsValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}
