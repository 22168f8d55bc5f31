package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

// Options tune how the store is opened.
type Options struct {
	// UseWALMode switches the journal to write-ahead logging.
	UseWALMode bool
	// EnsureACID raises the synchronous level by one step.
	EnsureACID bool
	Logger     *slog.Logger
	// Now overrides the wall clock, mostly for tests.
	Now func() time.Time
}

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	// local is false for remote libsql databases, which manage their own pragmas.
	local      bool
	useWALMode bool
}

// NewSQLiteRepository opens the database at dbURL and brings its schema up to date.
func NewSQLiteRepository(ctx context.Context, dbURL string, opts Options) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	dsn := dbURL
	if driverName == "sqlite" {
		dsn = withPragmas(dbURL, opts.UseWALMode, opts.EnsureACID)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One shared handle; the engine serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &SQLiteRepository{
		db:         db,
		logger:     opts.Logger,
		now:        opts.Now,
		local:      driverName == "sqlite",
		useWALMode: opts.UseWALMode,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}

	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if r.local {
		if err := r.tune(ctx, opts.UseWALMode, opts.EnsureACID); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("tune database: %w", err)
		}
	}

	return r, nil
}

// Close releases the underlying DB.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) unixNow() int64 {
	return r.now().Unix()
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPointer(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// Ensure interface compliance
var (
	_ ports.LinkRepository        = (*SQLiteRepository)(nil)
	_ ports.AdRepository          = (*SQLiteRepository)(nil)
	_ ports.MaintenanceRepository = (*SQLiteRepository)(nil)
)
