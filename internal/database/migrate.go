package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/schema"
)

// Migrate creates every registry table that does not exist yet.  Existing
// tables are left untouched; column changes need a manual migration.
func Migrate(ctx context.Context, db *sqlx.DB, reg *schema.Registry) error {
	d := schema.Dialect(db.DriverName())
	for _, t := range reg.All() {
		if _, err := db.ExecContext(ctx, t.CreateSQL(d)); err != nil {
			return fmt.Errorf("migrate %s: %w", t.Name, err)
		}
		zap.L().Debug("table ensured", zap.String("table", t.Name), zap.String("dialect", string(d)))
	}
	return nil
}
