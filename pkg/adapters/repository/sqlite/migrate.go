package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// schemaVersion is stored in PRAGMA user_version. Bump it with every schema change.
const schemaVersion = 3

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, r *SQLiteRepository) error
}

// migrations run in order for databases below their version. Each step must
// be safe to repeat, since a crash can leave user_version behind the schema.
var migrations = []migration{
	{
		version: 1,
		name:    "add urls.expiry_time",
		apply: func(ctx context.Context, r *SQLiteRepository) error {
			return r.addColumn(ctx, "urls", "expiry_time", "INTEGER NOT NULL DEFAULT 0")
		},
	},
	{
		version: 3,
		name:    "add urls.ad_id",
		apply: func(ctx context.Context, r *SQLiteRepository) error {
			if err := r.addColumn(ctx, "urls", "ad_id", "INTEGER"); err != nil {
				return err
			}
			_, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_urls_ad_id ON urls (ad_id)`)
			return err
		},
	},
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	var tableExists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'urls'`,
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("query urls table: %w", err)
	}

	// expiry_time and ad_id are part of the fresh schema; older databases get them from migrations.
	query := `
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		long_url TEXT NOT NULL,
		short_url TEXT NOT NULL,
		hits INTEGER NOT NULL,
		expiry_time INTEGER NOT NULL DEFAULT 0,
		ad_id INTEGER
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_short_url ON urls (short_url);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create urls table: %w", err)
	}

	current := schemaVersion
	if tableExists > 0 {
		if err := r.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
			return fmt.Errorf("read user_version: %w", err)
		}
	}

	for _, m := range migrations {
		if current >= m.version {
			continue
		}
		r.logger.InfoContext(ctx, "applying migration", "version", m.version, "name", m.name)
		if err := m.apply(ctx, r); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}

	query = `
	CREATE INDEX IF NOT EXISTS idx_expiry_time ON urls (expiry_time);
	CREATE INDEX IF NOT EXISTS idx_urls_ad_id ON urls (ad_id);

	CREATE TABLE IF NOT EXISTS ads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL,
		ad_link TEXT NOT NULL,
		expiry_time INTEGER NOT NULL DEFAULT 0,
		countdown_seconds INTEGER NOT NULL DEFAULT 5,
		CONSTRAINT ads_name_unique UNIQUE (name)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ads_name ON ads (name);
	CREATE INDEX IF NOT EXISTS idx_ads_expiry_time ON ads (expiry_time);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create ads table: %w", err)
	}

	// PRAGMA does not take bound parameters.
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) addColumn(ctx context.Context, table, column, definition string) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	return err
}

// journalSettings maps the storage options to journal_mode and synchronous.
func journalSettings(useWALMode, ensureACID bool) (journalMode, synchronous string) {
	switch {
	case useWALMode && !ensureACID:
		return "WAL", "NORMAL"
	case useWALMode && ensureACID:
		return "WAL", "FULL"
	case !useWALMode && ensureACID:
		return "DELETE", "EXTRA"
	default:
		return "DELETE", "FULL"
	}
}

// connPragmas are per-connection settings. They go into the DSN so the
// driver reapplies them to every connection the pool opens.
func connPragmas(synchronous string) []string {
	return []string{
		"synchronous(" + synchronous + ")",
		"temp_store(memory)",
		"journal_size_limit(8388608)",
		"mmap_size(16777216)",
	}
}

// withPragmas appends _pragma parameters for the local driver to dbURL.
func withPragmas(dbURL string, useWALMode, ensureACID bool) string {
	_, synchronous := journalSettings(useWALMode, ensureACID)

	params := make([]string, 0, 4)
	for _, p := range connPragmas(synchronous) {
		params = append(params, "_pragma="+p)
	}

	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + strings.Join(params, "&")
}

// tune sets the journal mode, which sticks to the file, and compacts the file once per open.
func (r *SQLiteRepository) tune(ctx context.Context, useWALMode, ensureACID bool) error {
	journalMode, synchronous := journalSettings(useWALMode, ensureACID)

	var mode string
	if err := r.db.QueryRowContext(ctx, `PRAGMA journal_mode = `+journalMode).Scan(&mode); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}

	for _, p := range []string{`VACUUM`, `PRAGMA optimize = 0x10002`} {
		if _, err := r.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	r.logger.InfoContext(ctx, "database ready",
		"journal_mode", mode,
		"synchronous", synchronous,
		"schema_version", schemaVersion,
	)
	return nil
}
