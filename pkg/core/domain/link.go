package domain

import (
	"bytes"
	"encoding/json"
)

// MaxExpiryDelay is roughly five years, in seconds.
const MaxExpiryDelay int64 = 157_784_760

// Link represents a stored short link row
type Link struct {
	ID         int64  `json:"-"`
	Shortlink  string `json:"shortlink"`
	Longlink   string `json:"longlink"`
	Hits       int64  `json:"hits"`
	ExpiryTime int64  `json:"expiry_time"` // Unix seconds, 0 means never
	AdID       *int64 `json:"ad_id"`
}

// IsLive reports whether the row is visible at the given unix time.
func (l Link) IsLive(now int64) bool {
	return l.ExpiryTime == 0 || l.ExpiryTime > now
}

// NewLinkRequest carries the fields consumed by link creation.
type NewLinkRequest struct {
	Shortlink   string `json:"shortlink"`
	Longlink    string `json:"longlink"`
	ExpiryDelay int64  `json:"expiry_delay"`
	AdID        *int64 `json:"ad_id"`
	// Public is set for unauthenticated callers in public mode.
	Public bool `json:"-"`
}

// CreatedLink is the result of a successful AddLink.
type CreatedLink struct {
	Shortlink  string `json:"shortlink"`
	ExpiryTime int64  `json:"expiry_time"`
	AdID       *int64 `json:"ad_id"`
}

// EditLinkRequest carries the fields consumed by link editing.
type EditLinkRequest struct {
	Shortlink string     `json:"shortlink"`
	Longlink  string     `json:"longlink"`
	ResetHits bool       `json:"reset_hits"`
	AdID      AdIDUpdate `json:"ad_id"`
}

// AdIDUpdate is a tri-state ad reference change: untouched, set, or cleared.
// The zero value leaves the stored reference untouched.
type AdIDUpdate struct {
	Present bool
	Value   *int64
}

func KeepAdID() AdIDUpdate { return AdIDUpdate{} }

func SetAdID(id int64) AdIDUpdate { return AdIDUpdate{Present: true, Value: &id} }

func ClearAdID() AdIDUpdate { return AdIDUpdate{Present: true} }

// UnmarshalJSON is only invoked when the key is present, so an explicit null
// clears the reference while a missing key keeps it.
func (u *AdIDUpdate) UnmarshalJSON(data []byte) error {
	u.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		u.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	u.Value = &id
	return nil
}

// PageParams selects one of the listing modes. Zero values mean absent.
type PageParams struct {
	After    string
	PageNo   int64
	PageSize int64
}

// DefaultPageSize applies to keyset and offset pagination without a size.
const DefaultPageSize int64 = 10
