package services

import (
	"context"
	"strings"
	"time"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

var errInvalidAdID = domain.NewInvalid("Invalid ad id.")

type AdService struct {
	repo ports.AdRepository
	now  func() time.Time
}

// NewAdService returns an AdService. A nil now uses the wall clock.
func NewAdService(repo ports.AdRepository, now func() time.Time) *AdService {
	if now == nil {
		now = time.Now
	}
	return &AdService{repo: repo, now: now}
}

func (s *AdService) CreateAd(ctx context.Context, req domain.AdRequest) (domain.Ad, error) {
	ad, err := s.validate(req)
	if err != nil {
		return domain.Ad{}, err
	}
	return s.repo.InsertAd(ctx, ad)
}

func (s *AdService) EditAd(ctx context.Context, id int64, req domain.AdRequest) (domain.Ad, error) {
	if id <= 0 {
		return domain.Ad{}, errInvalidAdID
	}
	ad, err := s.validate(req)
	if err != nil {
		return domain.Ad{}, err
	}
	ad.ID = id
	return s.repo.UpdateAd(ctx, ad)
}

func (s *AdService) DeleteAd(ctx context.Context, id int64) error {
	if id <= 0 {
		return errInvalidAdID
	}
	return s.repo.DeleteAd(ctx, id)
}

func (s *AdService) ListAds(ctx context.Context) []domain.Ad {
	return s.repo.ListAds(ctx)
}

func (s *AdService) ListActiveAds(ctx context.Context) []domain.Ad {
	return s.repo.ListActiveAds(ctx)
}

// validate trims the text fields, converts the expiry delay to an absolute
// time and applies the countdown default.
func (s *AdService) validate(req domain.AdRequest) (domain.Ad, error) {
	ad := domain.Ad{
		Name:     strings.TrimSpace(req.Name),
		ImageURL: strings.TrimSpace(req.ImageURL),
		AdLink:   strings.TrimSpace(req.AdLink),
	}
	switch {
	case ad.Name == "":
		return domain.Ad{}, domain.NewInvalid("Ad name is required.")
	case ad.ImageURL == "":
		return domain.Ad{}, domain.NewInvalid("Image URL is required.")
	case ad.AdLink == "":
		return domain.Ad{}, domain.NewInvalid("Ad link is required.")
	}

	delay := max(0, min(req.ExpiryDelay, domain.MaxExpiryDelay))
	if delay > 0 {
		ad.ExpiryTime = s.now().Unix() + delay
	}

	ad.CountdownSeconds = domain.DefaultCountdown
	if req.CountdownSeconds != nil {
		ad.CountdownSeconds = *req.CountdownSeconds
	}
	if ad.CountdownSeconds < 0 || ad.CountdownSeconds > domain.MaxCountdown {
		return domain.Ad{}, domain.NewInvalid("Countdown must be between 0 and 30 seconds.")
	}
	return ad, nil
}

var _ ports.AdService = (*AdService)(nil)
