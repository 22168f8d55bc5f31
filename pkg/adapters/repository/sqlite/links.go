package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

const linkColumns = `id, short_url, long_url, hits, expiry_time, ad_id`

// AddLink writes the row in a single statement. An existing row is only
// overwritten when it has already expired, so two racing creators of the same
// slug cannot both succeed.
func (r *SQLiteRepository) AddLink(ctx context.Context, shortlink, longlink string, expiryDelay int64, adID *int64) (int64, error) {
	now := r.unixNow()
	var expiryTime int64
	if expiryDelay > 0 {
		expiryTime = now + expiryDelay
	}

	query := `INSERT INTO urls (long_url, short_url, hits, expiry_time, ad_id)
			  VALUES (?, ?, 0, ?, ?)
			  ON CONFLICT(short_url) DO UPDATE
			  SET long_url = excluded.long_url, hits = 0,
			      expiry_time = excluded.expiry_time, ad_id = excluded.ad_id
			  WHERE urls.expiry_time > 0 AND urls.expiry_time <= ?`

	res, err := r.db.ExecContext(ctx, query, longlink, shortlink, expiryTime, nullableID(adID), now)
	if err != nil {
		r.logger.ErrorContext(ctx, "add link failed",
			"shortlink", shortlink, "longlink", longlink, "expiry_delay", expiryDelay, "error", err)
		return 0, domain.NewServerError("add link", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewServerError("add link", err)
	}
	if n == 0 {
		return 0, domain.ErrSlugInUse
	}
	return expiryTime, nil
}

// FindURL returns the live row for shortlink.
func (r *SQLiteRepository) FindURL(ctx context.Context, shortlink string) (domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM urls
			  WHERE short_url = ? AND (expiry_time = 0 OR expiry_time > ?)`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortlink, r.unixNow()))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Link{}, domain.NewNotFound("The shortlink does not exist on the server!")
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "find url failed", "shortlink", shortlink, "error", err)
		return domain.Link{}, domain.NewServerError("find url", err)
	}
	return link, nil
}

// FindAndAddHit increments hits on a live row and returns its long URL in the
// same statement. The boolean is false for any failure, absent rows included.
func (r *SQLiteRepository) FindAndAddHit(ctx context.Context, shortlink string) (string, bool) {
	query := `UPDATE urls SET hits = hits + 1
			  WHERE short_url = ? AND (expiry_time = 0 OR expiry_time > ?)
			  RETURNING long_url`

	var longlink string
	err := r.db.QueryRowContext(ctx, query, shortlink, r.unixNow()).Scan(&longlink)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.ErrorContext(ctx, "add hit failed", "shortlink", shortlink, "error", err)
		}
		return "", false
	}
	return longlink, true
}

// EditLink updates a live row in place and returns the number of rows changed.
func (r *SQLiteRepository) EditLink(ctx context.Context, shortlink, longlink string, resetHits bool, adID domain.AdIDUpdate) (int64, error) {
	query := `UPDATE urls SET long_url = ?`
	args := []any{longlink}
	if resetHits {
		query += `, hits = 0`
	}
	if adID.Present {
		query += `, ad_id = ?`
		args = append(args, nullableID(adID.Value))
	}
	query += ` WHERE short_url = ? AND (expiry_time = 0 OR expiry_time > ?)`
	args = append(args, shortlink, r.unixNow())

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "edit link failed",
			"shortlink", shortlink, "longlink", longlink, "reset_hits", resetHits, "error", err)
		return 0, domain.NewServerError("edit link", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewServerError("edit link", err)
	}
	return n, nil
}

// DeleteLink removes the row regardless of expiry.
func (r *SQLiteRepository) DeleteLink(ctx context.Context, shortlink string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM urls WHERE short_url = ?`, shortlink)
	if err != nil {
		r.logger.ErrorContext(ctx, "delete link failed", "shortlink", shortlink, "error", err)
		return domain.NewServerError("delete link", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewServerError("delete link", err)
	}
	if n == 0 {
		return domain.NewNotFound("The shortlink was not found, and could not be deleted.")
	}
	return nil
}

// GetAll lists live rows in creation order. Modes, by precedence: keyset after
// page.After, offset page page.PageNo, first page.PageSize rows, everything.
// Failures are logged and yield an empty list.
func (r *SQLiteRepository) GetAll(ctx context.Context, page domain.PageParams) []domain.Link {
	now := r.unixNow()
	size := page.PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}

	var (
		query string
		args  []any
	)
	switch {
	case page.After != "":
		query = `SELECT t.id, t.short_url, t.long_url, t.hits, t.expiry_time, t.ad_id
				 FROM urls AS t JOIN urls AS u ON u.short_url = ?
				 WHERE t.id > u.id AND (t.expiry_time = 0 OR t.expiry_time > ?)
				 ORDER BY t.id ASC LIMIT ?`
		args = []any{page.After, now, size}
	case page.PageNo > 0:
		query = `SELECT ` + linkColumns + ` FROM urls
				 WHERE expiry_time = 0 OR expiry_time > ?
				 ORDER BY id ASC LIMIT ? OFFSET ?`
		args = []any{now, size, (page.PageNo - 1) * size}
	case page.PageSize > 0:
		query = `SELECT ` + linkColumns + ` FROM urls
				 WHERE expiry_time = 0 OR expiry_time > ?
				 ORDER BY id ASC LIMIT ?`
		args = []any{now, size}
	default:
		query = `SELECT ` + linkColumns + ` FROM urls
				 WHERE expiry_time = 0 OR expiry_time > ?
				 ORDER BY id ASC`
		args = []any{now}
	}

	links, err := r.queryLinks(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "getall failed", "error", err)
		return []domain.Link{}
	}
	return links
}

// Dump returns every row, expired ones included.
func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	return r.queryLinks(ctx, `SELECT `+linkColumns+` FROM urls ORDER BY id ASC`)
}

func (r *SQLiteRepository) queryLinks(ctx context.Context, query string, args ...any) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (domain.Link, error) {
	var (
		l    domain.Link
		adID sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Shortlink, &l.Longlink, &l.Hits, &l.ExpiryTime, &adID); err != nil {
		return domain.Link{}, err
	}
	l.AdID = idPointer(adID)
	return l, nil
}
