package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

const adColumns = `id, name, image_url, ad_link, expiry_time, countdown_seconds`

var errAdNameInUse = domain.NewConflict("Ad name is already in use!")

// InsertAd stores a new ad and returns it with its assigned id.
func (r *SQLiteRepository) InsertAd(ctx context.Context, ad domain.Ad) (domain.Ad, error) {
	query := `INSERT INTO ads (name, image_url, ad_link, expiry_time, countdown_seconds)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(name) DO NOTHING
			  RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		ad.Name, ad.ImageURL, ad.AdLink, ad.ExpiryTime, ad.CountdownSeconds,
	).Scan(&ad.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ad{}, errAdNameInUse
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "insert ad failed",
			"name", ad.Name, "image_url", ad.ImageURL, "ad_link", ad.AdLink, "error", err)
		return domain.Ad{}, domain.NewServerError("insert ad", err)
	}
	return ad, nil
}

// UpdateAd overwrites every field of the ad with ad.ID.
func (r *SQLiteRepository) UpdateAd(ctx context.Context, ad domain.Ad) (domain.Ad, error) {
	query := `UPDATE ads
			  SET name = ?, image_url = ?, ad_link = ?, expiry_time = ?, countdown_seconds = ?
			  WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		ad.Name, ad.ImageURL, ad.AdLink, ad.ExpiryTime, ad.CountdownSeconds, ad.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Ad{}, errAdNameInUse
		}
		r.logger.ErrorContext(ctx, "update ad failed",
			"id", ad.ID, "name", ad.Name, "error", err)
		return domain.Ad{}, domain.NewServerError("update ad", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Ad{}, domain.NewServerError("update ad", err)
	}
	if n == 0 {
		return domain.Ad{}, domain.NewNotFound("The ad was not found, and could not be edited.")
	}
	return ad, nil
}

// DeleteAd clears every link reference to the ad and deletes it, in one transaction.
func (r *SQLiteRepository) DeleteAd(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "delete ad: begin failed", "id", id, "error", err)
		return domain.NewServerError("delete ad", err)
	}
	defer tx.Rollback()

	// 1. Clear link references
	cleared, err := tx.ExecContext(ctx, `UPDATE urls SET ad_id = NULL WHERE ad_id = ?`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "clearing ad references failed", "id", id, "error", err)
		return domain.NewServerError("clear ad references", err)
	}

	// 2. Delete the ad itself
	res, err := tx.ExecContext(ctx, `DELETE FROM ads WHERE id = ?`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "delete ad failed", "id", id, "error", err)
		return domain.NewServerError("delete ad", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewServerError("delete ad", err)
	}
	if n == 0 {
		return domain.NewNotFound("The ad was not found, and could not be deleted.")
	}

	if err := tx.Commit(); err != nil {
		r.logger.ErrorContext(ctx, "delete ad: commit failed", "id", id, "error", err)
		return domain.NewServerError("delete ad", err)
	}
	if c, _ := cleared.RowsAffected(); c > 0 {
		r.logger.InfoContext(ctx, "cleared ad references", "id", id, "links", c)
	}
	return nil
}

// ListAds returns every ad ordered by id. Failures yield an empty list.
func (r *SQLiteRepository) ListAds(ctx context.Context) []domain.Ad {
	ads, err := r.queryAds(ctx, `SELECT `+adColumns+` FROM ads ORDER BY id ASC`)
	if err != nil {
		r.logger.ErrorContext(ctx, "list ads failed", "error", err)
		return []domain.Ad{}
	}
	return ads
}

// ListActiveAds returns the ads that have not expired, ordered by id.
func (r *SQLiteRepository) ListActiveAds(ctx context.Context) []domain.Ad {
	ads, err := r.queryAds(ctx, `SELECT `+adColumns+` FROM ads
		WHERE expiry_time = 0 OR expiry_time > ?
		ORDER BY id ASC`, r.unixNow())
	if err != nil {
		r.logger.ErrorContext(ctx, "list active ads failed", "error", err)
		return []domain.Ad{}
	}
	return ads
}

// AdExists checks for the row only; expired ads still exist.
func (r *SQLiteRepository) AdExists(ctx context.Context, id int64) bool {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ads WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "ad existence check failed", "id", id, "error", err)
		return false
	}
	return exists
}

func (r *SQLiteRepository) queryAds(ctx context.Context, query string, args ...any) ([]domain.Ad, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ads := []domain.Ad{}
	for rows.Next() {
		var a domain.Ad
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL, &a.AdLink, &a.ExpiryTime, &a.CountdownSeconds); err != nil {
			return nil, err
		}
		ads = append(ads, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ads, nil
}

func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	// libsql reports constraint failures as plain text
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
