package availability

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// EnsureTimeSlots inserts DefaultSlots when time_slots is empty and
// returns how many rows were written.
func EnsureTimeSlots(ctx context.Context, db *sqlx.DB) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("time slots begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM `time_slots`"); err != nil {
		return 0, fmt.Errorf("time slots count: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	ins := tx.Rebind("INSERT INTO `time_slots` (`time`) VALUES (?)")
	for _, s := range DefaultSlots {
		if _, err := tx.ExecContext(ctx, ins, s); err != nil {
			return 0, fmt.Errorf("time slots insert %s: %w", s, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("time slots commit: %w", err)
	}
	zap.L().Info("time slots seeded", zap.Int("count", len(DefaultSlots)))
	return len(DefaultSlots), nil
}
