package sqlite

import (
	"context"
	"errors"
	"fmt"
)

// Cleanup deletes expired links, truncates the WAL when it is in use and runs
// an optimize pass. Ads are never swept; they only drop out of the active list.
func (r *SQLiteRepository) Cleanup(ctx context.Context) (int64, error) {
	r.logger.InfoContext(ctx, "starting database cleanup")

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM urls WHERE expiry_time > 0 AND expiry_time <= ?`, r.unixNow())
	if err != nil {
		return 0, fmt.Errorf("delete expired links: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired links: %w", err)
	}
	if deleted > 0 {
		r.logger.InfoContext(ctx, "expired links deleted", "count", deleted)
	}

	if r.local && r.useWALMode {
		var busy, logFrames, checkpointed int
		err := r.db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`).Scan(&busy, &logFrames, &checkpointed)
		if err != nil {
			return deleted, fmt.Errorf("wal checkpoint: %w", err)
		}
		if logFrames == -1 {
			return deleted, errors.New("wal checkpoint: database is not in WAL mode")
		}
	}

	if r.local {
		if _, err := r.db.ExecContext(ctx, `PRAGMA optimize`); err != nil {
			return deleted, fmt.Errorf("optimize: %w", err)
		}
	}

	r.logger.InfoContext(ctx, "optimized database")
	return deleted, nil
}
