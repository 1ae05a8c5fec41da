// internal/schema/schema.go
//
// Table schema registry.
//
// Context
// -------
// Every `/api/{table}` request names its table in the URL.  The gateway
// never interpolates that name into SQL directly; it first resolves it
// through a Registry that maps table names to column lists.  The same
// column metadata drives:
//
//   - identifier checks in the query translator (where, orderBy),
//   - body binding in the gateway (kind conversion, validator tags,
//     password hashing, admin-only columns),
//   - DDL generation at startup (see ddl.go).
//
// Notes
// -----
//   - Lookups are case-insensitive; the canonical name is the one declared.
//   - Internal tables (sessions) are migrated but never exposed.
//   - Fold columns are stored lower-case and compare case-insensitively.
package schema

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownTable is returned when a request names a table that is not in
// the registry or is internal.
var ErrUnknownTable = errors.New("unknown table")

// Kind is the storage class of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
	KindLongText
	KindDate      // 2006-01-02
	KindTime      // 15:04
	KindTimestamp // 2006-01-02 15:04:05
)

// Layouts used when normalising driver values back to strings.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Column describes one column and the write policy attached to it.
type Column struct {
	Name     string
	Kind     Kind
	Validate string // go-playground/validator tag run on the converted value
	Required bool   // NOT NULL, must be present on create
	Unique   bool
	Default  string // raw SQL default for DDL, e.g. `'user'`
	Hidden   bool   // never returned, never filterable
	Hashed   bool   // bcrypt on write
	Fold     bool   // trimmed and lower-cased before validation
	// AdminOnly columns are reset to AdminDefault on create and dropped on
	// update when the writer is not an admin.
	AdminOnly    bool
	AdminDefault any
	ReadOnly     bool // server-assigned, silently dropped from writes
}

// Table is the schema of one relation.  Every table has an integer primary
// key named `id`, which is implicit and not listed in Columns.
type Table struct {
	Name     string
	Columns  []Column
	Internal bool

	byName map[string]*Column
}

// Column returns the named column.  The primary key is reported as a
// read-only int column.
func (t *Table) Column(name string) (*Column, bool) {
	if name == "id" {
		return &Column{Name: "id", Kind: KindInt, ReadOnly: true}, true
	}
	c, ok := t.byName[name]
	return c, ok
}

// Visible reports whether name is a column callers may filter or sort on.
func (t *Table) Visible(name string) bool {
	c, ok := t.Column(name)
	return ok && !c.Hidden
}

func (t *Table) index() {
	t.byName = make(map[string]*Column, len(t.Columns))
	for i := range t.Columns {
		t.byName[t.Columns[i].Name] = &t.Columns[i]
	}
}

// Registry is an immutable allow-list of tables.  Safe for concurrent reads.
type Registry struct {
	tables map[string]*Table
}

// NewRegistry indexes the supplied tables.  Duplicate names panic since
// the registry is built once at start.
func NewRegistry(tables ...*Table) *Registry {
	r := &Registry{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if _, dup := r.tables[key]; dup {
			panic("schema: duplicate table " + t.Name)
		}
		t.index()
		r.tables[key] = t
	}
	return r
}

// Lookup resolves an exposed table by name.
func (r *Registry) Lookup(name string) (*Table, error) {
	t, ok := r.tables[strings.ToLower(name)]
	if !ok || t.Internal {
		return nil, ErrUnknownTable
	}
	return t, nil
}

// All returns every table, internal ones included, sorted by name so DDL
// runs in a stable order.
func (r *Registry) All() []*Table {
	out := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
