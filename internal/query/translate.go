// internal/query/translate.go
//
// Query-string to SQL fragment translator.
//
// Context
// -------
// List endpoints accept a small filter grammar in the query string:
//
//	where=tableNumber=5
//	where=guests>=4_AND_status=booked
//	where=name_LIKE_%pasta%
//	orderBy=-bookingDate,bookingTime
//	limit=10&offset=20
//
// Translate turns those parameters into WHERE / ORDER BY / LIMIT fragments
// with named placeholders (`:w0`, `:limit`, ...) and a parameter map for
// sqlx.Named.  Column names are checked against the table schema and then
// back-quoted; values are converted to the column kind and bound, never
// spliced into SQL text.
//
// Notes
// -----
//   - Several `where` parameters are ANDed, each one parenthesised.
//   - The translator keeps no state between calls.  Callers that add their
//     own predicate use Fragment.And.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/yanizio/bistro/internal/schema"
)

// Fragment is the translated SQL tail.  Each non-empty clause starts with
// a single space so callers can concatenate after `SELECT * FROM t`.
type Fragment struct {
	Where   string
	OrderBy string
	Limit   string
	Params  map[string]any
}

// SQL joins the clauses in the order the engines expect.
func (f *Fragment) SQL() string { return f.Where + f.OrderBy + f.Limit }

// And appends `predicate` to the WHERE clause, starting one when absent.
// name/value are added to Params when name is non-empty.
func (f *Fragment) And(predicate, name string, value any) {
	if strings.TrimSpace(f.Where) == "" {
		f.Where = " WHERE " + predicate
	} else {
		f.Where += " AND " + predicate
	}
	if name != "" {
		if f.Params == nil {
			f.Params = map[string]any{}
		}
		f.Params[name] = value
	}
}

// operators in match priority; two-char forms must precede their prefixes.
var condRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*?)(!=|>=|<=|=|>|<|_LIKE_)(.*)$`)

var sqlOps = map[string]string{
	"=":      "=",
	"!=":     "<>",
	">":      ">",
	">=":     ">=",
	"<":      "<",
	"<=":     "<=",
	"_LIKE_": "LIKE",
}

// Translate converts params for table t.  Unknown parameters are ignored.
func Translate(t *schema.Table, params url.Values) (Fragment, error) {
	f := Fragment{Params: map[string]any{}}
	n := 0

	var groups []string
	for _, expr := range params["where"] {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		sql, err := translateWhere(t, expr, &n, f.Params)
		if err != nil {
			return Fragment{}, err
		}
		groups = append(groups, "("+sql+")")
	}
	if len(groups) > 0 {
		f.Where = " WHERE " + strings.Join(groups, " AND ")
	}

	if raw := params.Get("orderBy"); strings.TrimSpace(raw) != "" {
		ob, err := translateOrderBy(t, raw)
		if err != nil {
			return Fragment{}, err
		}
		f.OrderBy = ob
	}

	limit, offset := params.Get("limit"), params.Get("offset")
	if limit != "" {
		v, err := nonNegative("limit", limit)
		if err != nil {
			return Fragment{}, err
		}
		f.Limit = " LIMIT :limit"
		f.Params["limit"] = v
	}
	if offset != "" {
		if limit == "" {
			return Fragment{}, schema.Invalid("offset", "requires limit")
		}
		v, err := nonNegative("offset", offset)
		if err != nil {
			return Fragment{}, err
		}
		f.Limit += " OFFSET :offset"
		f.Params["offset"] = v
	}
	return f, nil
}

// translateWhere handles one `where` value: conditions joined by _AND_ /
// _OR_.  n numbers the placeholders across the whole fragment.
func translateWhere(t *schema.Table, expr string, n *int, params map[string]any) (string, error) {
	var b strings.Builder
	for i, part := range splitConjunctions(expr) {
		if i%2 == 1 {
			b.WriteString(" " + part + " ")
			continue
		}
		m := condRe.FindStringSubmatch(part)
		if m == nil {
			return "", schema.Invalid("where", "malformed filter expression %q", part)
		}
		colName, op, raw := m[1], m[2], m[3]
		if !t.Visible(colName) {
			return "", schema.Invalid("where", "unknown column %q", colName)
		}
		col, _ := t.Column(colName)

		var val any = raw
		if op != "_LIKE_" {
			v, err := col.ConvertFilter(raw)
			if err != nil {
				return "", err
			}
			val = v
		}
		name := "w" + strconv.Itoa(*n)
		*n++
		params[name] = val
		b.WriteString(schema.Quote(colName) + " " + sqlOps[op] + " :" + name)
	}
	return b.String(), nil
}

// splitConjunctions returns cond, op, cond, op, cond ...
func splitConjunctions(expr string) []string {
	var out []string
	rest := expr
	for {
		ai := strings.Index(rest, "_AND_")
		oi := strings.Index(rest, "_OR_")
		switch {
		case ai < 0 && oi < 0:
			return append(out, rest)
		case oi < 0 || (ai >= 0 && ai < oi):
			out = append(out, rest[:ai], "AND")
			rest = rest[ai+len("_AND_"):]
		default:
			out = append(out, rest[:oi], "OR")
			rest = rest[oi+len("_OR_"):]
		}
	}
}

func translateOrderBy(t *schema.Table, raw string) (string, error) {
	var cols []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(part, "-") {
			dir, part = "DESC", part[1:]
		}
		if !t.Visible(part) {
			return "", schema.Invalid("orderBy", "unknown column %q", part)
		}
		cols = append(cols, schema.Quote(part)+" "+dir)
	}
	if len(cols) == 0 {
		return "", nil
	}
	return " ORDER BY " + strings.Join(cols, ", "), nil
}

func nonNegative(field, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		return 0, schema.Invalid(field, "must be a non-negative integer")
	}
	return v, nil
}
