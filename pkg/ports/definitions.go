package ports

import (
	"context"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

// LinkRepository defines storage operations for links
type LinkRepository interface {
	// AddLink inserts the link, or reclaims the slug when its row has expired.
	// A live row with the same slug yields domain.ErrSlugInUse.
	AddLink(ctx context.Context, shortlink, longlink string, expiryDelay int64, adID *int64) (int64, error)
	FindURL(ctx context.Context, shortlink string) (domain.Link, error)
	FindAndAddHit(ctx context.Context, shortlink string) (string, bool)
	EditLink(ctx context.Context, shortlink, longlink string, resetHits bool, adID domain.AdIDUpdate) (int64, error)
	DeleteLink(ctx context.Context, shortlink string) error
	GetAll(ctx context.Context, page domain.PageParams) []domain.Link
	Dump(ctx context.Context) ([]domain.Link, error) // For migration
}

// AdRepository defines storage operations for ads
type AdRepository interface {
	InsertAd(ctx context.Context, ad domain.Ad) (domain.Ad, error)
	UpdateAd(ctx context.Context, ad domain.Ad) (domain.Ad, error)
	DeleteAd(ctx context.Context, id int64) error // Clears link references first
	ListAds(ctx context.Context) []domain.Ad
	ListActiveAds(ctx context.Context) []domain.Ad
	AdExists(ctx context.Context, id int64) bool
}

// MaintenanceRepository defines housekeeping operations on the store
type MaintenanceRepository interface {
	Cleanup(ctx context.Context) (int64, error)
}

// LinkService defines the business logic operations
type LinkService interface {
	AddLink(ctx context.Context, req domain.NewLinkRequest) (domain.CreatedLink, error)
	FindURL(ctx context.Context, shortlink string) (domain.Link, error)
	FindAndAddHit(ctx context.Context, shortlink string) (string, bool)
	EditLink(ctx context.Context, req domain.EditLinkRequest) error
	DeleteLink(ctx context.Context, shortlink string) error
	GetAll(ctx context.Context, page domain.PageParams) []domain.Link
}

// AdService defines business logic for ads
type AdService interface {
	CreateAd(ctx context.Context, req domain.AdRequest) (domain.Ad, error)
	EditAd(ctx context.Context, id int64, req domain.AdRequest) (domain.Ad, error)
	DeleteAd(ctx context.Context, id int64) error
	ListAds(ctx context.Context) []domain.Ad
	ListActiveAds(ctx context.Context) []domain.Ad
}
