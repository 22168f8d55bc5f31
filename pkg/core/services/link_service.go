package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/slug"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

// maxSlugRetries bounds how many times a generated slug is redrawn after a collision.
const maxSlugRetries = 1

// longerSlugStep is added to the UID length on a retry when TryLonger is set.
const longerSlugStep = 4

// errSlugExhausted must not wrap ErrSlugInUse, or callers would report a conflict.
var errSlugExhausted = errors.New("generated slug collided on every attempt")

// LinkConfig controls slug generation and public-mode limits.
type LinkConfig struct {
	Style         slug.Style
	Length        int
	TryLonger     bool
	AllowCapitals bool
	// PublicExpiryDelay caps the expiry of links created by public callers. 0 disables the cap.
	PublicExpiryDelay int64
}

type LinkService struct {
	repo   ports.LinkRepository
	ads    ports.AdRepository
	gen    slug.Generator
	cfg    LinkConfig
	logger *slog.Logger
}

func NewLinkService(repo ports.LinkRepository, ads ports.AdRepository, gen slug.Generator, cfg LinkConfig, logger *slog.Logger) *LinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkService{repo: repo, ads: ads, gen: gen, cfg: cfg, logger: logger}
}

// AddLink validates the request and stores it. Without a shortlink one is
// generated, and a collision is retried with a fresh candidate.
func (s *LinkService) AddLink(ctx context.Context, req domain.NewLinkRequest) (domain.CreatedLink, error) {
	delay := s.expiryDelay(req)

	if req.Shortlink != "" && !slug.Valid(req.Shortlink, s.cfg.AllowCapitals) {
		return domain.CreatedLink{}, domain.NewInvalid("Short URL is not valid!")
	}
	if req.AdID != nil && !s.validAd(ctx, *req.AdID) {
		return domain.CreatedLink{}, errInvalidAdID
	}

	if req.Shortlink != "" {
		expiry, err := s.repo.AddLink(ctx, req.Shortlink, req.Longlink, delay, req.AdID)
		if err != nil {
			return domain.CreatedLink{}, err
		}
		return domain.CreatedLink{Shortlink: req.Shortlink, ExpiryTime: expiry, AdID: req.AdID}, nil
	}

	shortlink, expiry, err := s.addGenerated(ctx, req.Longlink, delay, req.AdID)
	if err != nil {
		return domain.CreatedLink{}, err
	}
	return domain.CreatedLink{Shortlink: shortlink, ExpiryTime: expiry, AdID: req.AdID}, nil
}

// addGenerated draws a slug and writes it, redrawing on collision up to
// maxSlugRetries times with no delay between attempts.
func (s *LinkService) addGenerated(ctx context.Context, longlink string, delay int64, adID *int64) (string, int64, error) {
	var (
		attempt   int
		shortlink string
	)

	op := func() (int64, error) {
		length := s.cfg.Length
		if attempt > 0 && s.cfg.Style == slug.UID && s.cfg.TryLonger {
			length += longerSlugStep
		}
		attempt++

		candidate, err := s.gen.Generate(s.cfg.Style, length, s.cfg.AllowCapitals)
		if err != nil {
			return 0, backoff.Permanent(domain.NewServerError("generate slug", err))
		}

		expiry, err := s.repo.AddLink(ctx, candidate, longlink, delay, adID)
		if errors.Is(err, domain.ErrSlugInUse) {
			s.logger.DebugContext(ctx, "generated slug collided", "slug", candidate, "attempt", attempt)
			return 0, err
		}
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		shortlink = candidate
		return expiry, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxSlugRetries), ctx)
	expiry, err := backoff.RetryWithData(op, policy)
	if errors.Is(err, domain.ErrSlugInUse) {
		s.logger.ErrorContext(ctx, "something went wrong while adding a generated link",
			"attempts", attempt, "style", s.cfg.Style)
		return "", 0, domain.NewServerError("allocate slug", errSlugExhausted)
	}
	if err != nil {
		return "", 0, err
	}
	return shortlink, expiry, nil
}

func (s *LinkService) expiryDelay(req domain.NewLinkRequest) int64 {
	delay := req.ExpiryDelay
	if req.Public && s.cfg.PublicExpiryDelay > 0 {
		if delay == 0 {
			delay = s.cfg.PublicExpiryDelay
		} else {
			delay = min(delay, s.cfg.PublicExpiryDelay)
		}
	}
	return max(0, min(delay, domain.MaxExpiryDelay))
}

func (s *LinkService) validAd(ctx context.Context, id int64) bool {
	return id > 0 && s.ads.AdExists(ctx, id)
}

func (s *LinkService) FindURL(ctx context.Context, shortlink string) (domain.Link, error) {
	return s.repo.FindURL(ctx, shortlink)
}

func (s *LinkService) FindAndAddHit(ctx context.Context, shortlink string) (string, bool) {
	return s.repo.FindAndAddHit(ctx, shortlink)
}

// EditLink replaces the long URL of a live link and applies the optional hit
// reset and ad reference change.
func (s *LinkService) EditLink(ctx context.Context, req domain.EditLinkRequest) error {
	if !slug.Valid(req.Shortlink, s.cfg.AllowCapitals) {
		return domain.NewInvalid("Invalid shortlink!")
	}
	if req.AdID.Present && req.AdID.Value != nil && !s.validAd(ctx, *req.AdID.Value) {
		return errInvalidAdID
	}

	n, err := s.repo.EditLink(ctx, req.Shortlink, req.Longlink, req.ResetHits, req.AdID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFound("The shortlink was not found, and could not be edited.")
	}
	return nil
}

func (s *LinkService) DeleteLink(ctx context.Context, shortlink string) error {
	if !slug.Valid(shortlink, s.cfg.AllowCapitals) {
		return domain.NewInvalid("The shortlink is invalid.")
	}
	return s.repo.DeleteLink(ctx, shortlink)
}

// GetAll treats non-positive page numbers and sizes as absent.
func (s *LinkService) GetAll(ctx context.Context, page domain.PageParams) []domain.Link {
	if page.PageNo < 0 {
		page.PageNo = 0
	}
	if page.PageSize < 0 {
		page.PageSize = 0
	}
	return s.repo.GetAll(ctx, page)
}

// Dump returns every stored link, expired ones included.
func (s *LinkService) Dump(ctx context.Context) ([]domain.Link, error) {
	return s.repo.Dump(ctx)
}

var _ ports.LinkService = (*LinkService)(nil)
