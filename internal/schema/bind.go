// internal/schema/bind.go
//
// Request-body binding and row scrubbing.
//
// Context
// -------
// Bodies arrive as map[string]any decoded with json.Decoder.UseNumber, so
// numbers show up as json.Number.  Bind walks the body, rejects unknown
// keys, converts each value to its column kind, runs the validator tag,
// and hashes password-like columns.  The result is a deterministic column
// list plus a named-parameter map ready for sqlx.Named.
//
// Scrub does the reverse for rows coming out of the driver: hidden columns
// are removed and driver-specific values ([]byte from MySQL, time.Time from
// parseTime DSNs) are normalised to the string layouts clients expect.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for Hashed columns.  Tests lower it.
var HashCost = bcrypt.DefaultCost

var validate = validator.New()

// ValidationError is a user-input error: malformed filter, unknown column,
// or a value that fails its column rule.  It maps to HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Mode selects create or update binding rules.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Bound is the output of Bind.  Columns is sorted; Args is keyed by column
// name so callers can write `:column` placeholders.
type Bound struct {
	Columns []string
	Args    map[string]any
}

// Bind validates and converts body for a write.  admin reports whether the
// writer has the admin role (see Column.AdminOnly).
func (t *Table) Bind(body map[string]any, mode Mode, admin bool) (Bound, error) {
	out := Bound{Args: make(map[string]any, len(body))}

	for key, raw := range body {
		col, ok := t.Column(key)
		if !ok {
			return Bound{}, Invalid(key, "unknown column")
		}
		if col.ReadOnly {
			continue
		}
		if col.AdminOnly && !admin {
			continue
		}
		v, err := col.convert(raw)
		if err != nil {
			return Bound{}, err
		}
		out.Args[key] = v
	}

	if mode == ModeCreate {
		for i := range t.Columns {
			col := &t.Columns[i]
			if col.AdminOnly && !admin && col.AdminDefault != nil {
				out.Args[col.Name] = col.AdminDefault
				continue
			}
			if _, ok := out.Args[col.Name]; ok {
				continue
			}
			if col.Required && col.Default == "" && !col.ReadOnly {
				return Bound{}, Invalid(col.Name, "is required")
			}
		}
	}

	for k := range out.Args {
		out.Columns = append(out.Columns, k)
	}
	sort.Strings(out.Columns)
	return out, nil
}

// convert maps one JSON value to the column kind and applies the column's
// validator tag and hashing.
func (c *Column) convert(raw any) (any, error) {
	if raw == nil {
		if c.Required {
			return nil, Invalid(c.Name, "must not be null")
		}
		return nil, nil
	}

	var v any
	switch c.Kind {
	case KindInt:
		n, err := toInt64(raw)
		if err != nil {
			return nil, Invalid(c.Name, "must be an integer")
		}
		v = n
	case KindFloat:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, Invalid(c.Name, "must be a number")
		}
		v = f
	case KindDate, KindTime:
		s, ok := raw.(string)
		if !ok {
			return nil, Invalid(c.Name, "must be a string")
		}
		v = strings.TrimSpace(s)
	default:
		s, err := toString(raw)
		if err != nil {
			return nil, Invalid(c.Name, "must be a string")
		}
		if c.Fold {
			s = strings.ToLower(strings.TrimSpace(s))
		}
		v = s
	}

	if c.Validate != "" {
		if err := validate.Var(v, c.Validate); err != nil {
			return nil, Invalid(c.Name, "invalid value %v", v)
		}
	}

	if c.Hashed {
		h, err := bcrypt.GenerateFromPassword([]byte(v.(string)), HashCost)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", c.Name, err)
		}
		v = string(h)
	}
	return v, nil
}

// ConvertFilter converts a raw query-string value for comparison against
// the column.  Unlike convert it never hashes or runs validator tags, so
// partial LIKE patterns still bind.
func (c *Column) ConvertFilter(raw string) (any, error) {
	switch c.Kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, Invalid(c.Name, "must be an integer")
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, Invalid(c.Name, "must be a number")
		}
		return f, nil
	default:
		if c.Fold {
			return strings.ToLower(strings.TrimSpace(raw)), nil
		}
		return raw, nil
	}
}

// Row is one result row keyed by column name.
type Row map[string]any

// Scrub removes hidden columns and normalises driver values in place.
func (t *Table) Scrub(row Row) Row {
	for k, v := range row {
		col, ok := t.Column(k)
		if ok && col.Hidden {
			delete(row, k)
			continue
		}
		switch x := v.(type) {
		case []byte:
			row[k] = normaliseBytes(col, ok, x)
		case time.Time:
			row[k] = formatTime(col, ok, x)
		}
	}
	return row
}

func normaliseBytes(col *Column, known bool, b []byte) any {
	s := string(b)
	if !known {
		return s
	}
	switch col.Kind {
	case KindInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case KindTime:
		if len(s) > 5 {
			return s[:5]
		}
	}
	return s
}

func formatTime(col *Column, known bool, ts time.Time) string {
	if !known {
		return ts.Format(TimestampLayout)
	}
	switch col.Kind {
	case KindDate:
		return ts.Format(DateLayout)
	case KindTime:
		return ts.Format(TimeLayout)
	default:
		return ts.Format(TimestampLayout)
	}
}

/*──────────────────────────── conversions ──────────────────────────────────*/

// ToInt64 converts a scanned or decoded value to int64.  Used for owner
// comparisons on rows returned by different drivers.
func ToInt64(v any) (int64, error) { return toInt64(v) }

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("unsupported string type %T", v)
	}
}
