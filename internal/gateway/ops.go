package gateway

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/query"
	"github.com/yanizio/bistro/internal/schema"
)

// List returns the rows of table filtered by params.  On bookings a
// non-admin caller only ever sees rows they own; the predicate is added to
// the SQL, not applied afterwards.
func (g *Gateway) List(ctx context.Context, rc auth.RequestContext, table string, params url.Values) (rows []schema.Row, err error) {
	t, err := g.reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(t.Name, "list", err) }()

	restrict := owned(t) && !rc.IsAdmin()
	if restrict && rc.Anonymous() {
		return nil, ErrLoginRequired
	}

	frag, err := query.Translate(t, params)
	if err != nil {
		return nil, err
	}
	if restrict {
		frag.And(schema.Quote(ownerColumn)+" = :ownerId", "ownerId", rc.User.ID)
	}

	q, args, err := g.named("SELECT * FROM "+schema.Quote(t.Name)+frag.SQL(), frag.Params)
	if err != nil {
		return nil, err
	}
	rows, err = queryRows(ctx, g.db, t, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, err)
	}
	return rows, nil
}

// Get returns one row.  For bookings the ownership check runs after the
// row is located, so a missing id stays ErrNotFound for every caller.
func (g *Gateway) Get(ctx context.Context, rc auth.RequestContext, table, rawID string) (row schema.Row, err error) {
	t, err := g.reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(t.Name, "get", err) }()

	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	row, err = getByID(ctx, g.db, t, id)
	if err != nil {
		return nil, err
	}
	if owned(t) {
		if err := checkOwner(rc, t, row); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// Create inserts body into table and returns the stored row plus
// `insertId`.  A client-supplied id is ignored.
func (g *Gateway) Create(ctx context.Context, rc auth.RequestContext, table string, body map[string]any) (row schema.Row, err error) {
	t, err := g.reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(t.Name, "create", err) }()

	body = maps.Clone(body)
	if body == nil {
		body = map[string]any{}
	}
	delete(body, "id")

	if owned(t) {
		provided, has := body[ownerColumn]
		delete(body, ownerColumn)
		if !rc.IsAdmin() && rc.Anonymous() {
			return nil, ErrLoginRequired
		}
		var target any = rc.User.ID
		if rc.IsAdmin() && has && provided != nil {
			target = provided
		}
		body[ownerColumn] = target

		if s, ok := body["status"].(string); body["status"] == nil || (ok && strings.TrimSpace(s) == "") {
			body["status"] = defaultStatus
		}
	}

	b, err := t.Bind(body, schema.ModeCreate, rc.IsAdmin())
	if err != nil {
		return nil, err
	}
	if len(b.Columns) == 0 {
		return nil, schema.Invalid("", "no columns to insert")
	}

	cols := make([]string, len(b.Columns))
	marks := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = schema.Quote(c)
		marks[i] = ":" + c
	}
	insert := "INSERT INTO " + schema.Quote(t.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"

	q, args, err := g.named(insert, b.Args)
	if err != nil {
		return nil, err
	}

	err = g.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("insert into %s: %w", t.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert id %s: %w", t.Name, err)
		}
		row, err = getByID(ctx, tx, t, id)
		if err != nil {
			return err
		}
		row["insertId"] = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Update applies every field in body to the row and returns the result.
// For bookings the existing row is read and its owner checked inside the
// same transaction as the write.  Non-admins cannot move a booking to
// another user; admins may reassign by sending userId.
func (g *Gateway) Update(ctx context.Context, rc auth.RequestContext, table, rawID string, body map[string]any) (row schema.Row, err error) {
	t, err := g.reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(t.Name, "update", err) }()

	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	body = maps.Clone(body)
	if body == nil {
		body = map[string]any{}
	}
	delete(body, "id")

	var provided any
	var hasProvided bool
	if owned(t) {
		provided, hasProvided = body[ownerColumn]
		delete(body, ownerColumn)
		if !rc.IsAdmin() && rc.Anonymous() {
			return nil, ErrLoginRequired
		}
	}

	err = g.inTx(ctx, func(tx *sqlx.Tx) error {
		if owned(t) {
			existing, err := lockByID(ctx, tx, t, id)
			if err != nil {
				return err
			}
			if err := checkOwner(rc, t, existing); err != nil {
				return err
			}
			switch {
			case rc.IsAdmin() && hasProvided && provided != nil:
				body[ownerColumn] = provided
			case rc.IsAdmin():
				body[ownerColumn] = existing[ownerColumn]
			default:
				body[ownerColumn] = rc.User.ID
			}
		}

		b, err := t.Bind(body, schema.ModeUpdate, rc.IsAdmin())
		if err != nil {
			return err
		}
		if len(b.Columns) == 0 {
			return schema.Invalid("", "no columns to update")
		}

		sets := make([]string, len(b.Columns))
		for i, c := range b.Columns {
			sets[i] = schema.Quote(c) + " = :" + c
		}
		b.Args["id"] = id
		q, args, err := g.named("UPDATE "+schema.Quote(t.Name)+
			" SET "+strings.Join(sets, ", ")+" WHERE `id` = :id", b.Args)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("update %s %d: %w", t.Name, id, err)
		}

		row, err = getByID(ctx, tx, t, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes one row and returns it as it was.  Ownership on bookings
// is checked exactly as in Get.
func (g *Gateway) Delete(ctx context.Context, rc auth.RequestContext, table, rawID string) (row schema.Row, err error) {
	t, err := g.reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(t.Name, "delete", err) }()

	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	err = g.inTx(ctx, func(tx *sqlx.Tx) error {
		row, err = lockByID(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if owned(t) {
			if err := checkOwner(rc, t, row); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+schema.Quote(t.Name)+" WHERE `id` = ?", id); err != nil {
			return fmt.Errorf("delete %s %d: %w", t.Name, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}
