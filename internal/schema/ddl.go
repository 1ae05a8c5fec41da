// internal/schema/ddl.go
//
// DDL generation from the registry.
//
// The same column list produces `CREATE TABLE IF NOT EXISTS` statements
// for MySQL/MariaDB (production) and SQLite (local runs and tests).
// Identifiers are always back-quoted; both engines accept that, and
// `match` is reserved in both.  Fold columns get COLLATE NOCASE on SQLite;
// the utf8mb4 default collation on MySQL is already case-insensitive.
package schema

import (
	"fmt"
	"strings"
)

// Dialect names a SQL flavour.  Values match database/sql driver names.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Quote back-quotes an identifier.  Callers must only pass names that came
// out of the registry.
func Quote(ident string) string { return "`" + ident + "`" }

// CreateSQL returns the CREATE TABLE statement for t in dialect d.
func (t *Table) CreateSQL(d Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", Quote(t.Name))

	if d == MySQL {
		b.WriteString("  `id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	} else {
		b.WriteString("  `id` INTEGER PRIMARY KEY AUTOINCREMENT")
	}

	for _, c := range t.Columns {
		fmt.Fprintf(&b, ",\n  %s %s", Quote(c.Name), columnType(d, c.Kind))
		if c.Fold && d == SQLite {
			b.WriteString(" COLLATE NOCASE")
		}
		if c.Required {
			b.WriteString(" NOT NULL")
		}
		if c.Default != "" {
			b.WriteString(" DEFAULT " + c.Default)
		}
		if c.Unique {
			b.WriteString(" UNIQUE")
		}
	}
	b.WriteString("\n)")
	if d == MySQL {
		b.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	return b.String()
}

func columnType(d Dialect, k Kind) string {
	if d == SQLite {
		switch k {
		case KindInt:
			return "INTEGER"
		case KindFloat:
			return "REAL"
		default:
			return "TEXT"
		}
	}
	switch k {
	case KindInt:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE"
	case KindLongText:
		return "TEXT"
	case KindDate:
		return "DATE"
	case KindTime:
		return "CHAR(5)"
	case KindTimestamp:
		return "DATETIME"
	default:
		return "VARCHAR(255)"
	}
}
