package domain

const (
	DefaultCountdown int64 = 5
	MaxCountdown     int64 = 30
)

// Ad represents an advertisement that links may reference
type Ad struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ImageURL         string `json:"image_url"`
	AdLink           string `json:"ad_link"`
	ExpiryTime       int64  `json:"expiry_time"`
	CountdownSeconds int64  `json:"countdown_seconds"`
}

// AdRequest carries the fields consumed by ad creation and update.
type AdRequest struct {
	Name             string `json:"name"`
	ImageURL         string `json:"image_url"`
	AdLink           string `json:"ad_link"`
	ExpiryDelay      int64  `json:"expiry_delay"`
	CountdownSeconds *int64 `json:"countdown_seconds"`
}
