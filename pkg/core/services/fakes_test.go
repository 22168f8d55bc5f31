package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/slug"
)

// memLinkRepo mirrors the conditional upsert of the real store in memory.
type memLinkRepo struct {
	mu     sync.Mutex
	links  map[string]domain.Link
	nextID int64
	now    func() time.Time
	adds   int
}

func newMemLinkRepo(now func() time.Time) *memLinkRepo {
	return &memLinkRepo{links: map[string]domain.Link{}, now: now}
}

func (r *memLinkRepo) AddLink(_ context.Context, shortlink, longlink string, expiryDelay int64, adID *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adds++

	now := r.now().Unix()
	if existing, ok := r.links[shortlink]; ok && existing.IsLive(now) {
		return 0, domain.ErrSlugInUse
	}
	var expiry int64
	if expiryDelay > 0 {
		expiry = now + expiryDelay
	}
	r.nextID++
	r.links[shortlink] = domain.Link{
		ID: r.nextID, Shortlink: shortlink, Longlink: longlink, ExpiryTime: expiry, AdID: adID,
	}
	return expiry, nil
}

func (r *memLinkRepo) FindURL(_ context.Context, shortlink string) (domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[shortlink]
	if !ok || !l.IsLive(r.now().Unix()) {
		return domain.Link{}, domain.NewNotFound("The shortlink does not exist on the server!")
	}
	return l, nil
}

func (r *memLinkRepo) FindAndAddHit(_ context.Context, shortlink string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[shortlink]
	if !ok || !l.IsLive(r.now().Unix()) {
		return "", false
	}
	l.Hits++
	r.links[shortlink] = l
	return l.Longlink, true
}

func (r *memLinkRepo) EditLink(_ context.Context, shortlink, longlink string, resetHits bool, adID domain.AdIDUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[shortlink]
	if !ok || !l.IsLive(r.now().Unix()) {
		return 0, nil
	}
	l.Longlink = longlink
	if resetHits {
		l.Hits = 0
	}
	if adID.Present {
		l.AdID = adID.Value
	}
	r.links[shortlink] = l
	return 1, nil
}

func (r *memLinkRepo) DeleteLink(_ context.Context, shortlink string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[shortlink]; !ok {
		return domain.NewNotFound("The shortlink was not found, and could not be deleted.")
	}
	delete(r.links, shortlink)
	return nil
}

func (r *memLinkRepo) GetAll(_ context.Context, _ domain.PageParams) []domain.Link {
	links, _ := r.Dump(context.Background())
	return links
}

func (r *memLinkRepo) Dump(_ context.Context) ([]domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Link, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// recordingLinkRepo captures the last page params passed to GetAll.
type recordingLinkRepo struct {
	*memLinkRepo
	lastPage domain.PageParams
}

func (r *recordingLinkRepo) GetAll(ctx context.Context, page domain.PageParams) []domain.Link {
	r.lastPage = page
	return r.memLinkRepo.GetAll(ctx, page)
}

type memAdRepo struct {
	mu     sync.Mutex
	ads    map[int64]domain.Ad
	nextID int64
}

func newMemAdRepo() *memAdRepo {
	return &memAdRepo{ads: map[int64]domain.Ad{}}
}

func (r *memAdRepo) InsertAd(_ context.Context, ad domain.Ad) (domain.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.ads {
		if a.Name == ad.Name {
			return domain.Ad{}, domain.NewConflict("Ad name is already in use!")
		}
	}
	r.nextID++
	ad.ID = r.nextID
	r.ads[ad.ID] = ad
	return ad, nil
}

func (r *memAdRepo) UpdateAd(_ context.Context, ad domain.Ad) (domain.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[ad.ID]; !ok {
		return domain.Ad{}, domain.NewNotFound("The ad was not found, and could not be edited.")
	}
	r.ads[ad.ID] = ad
	return ad, nil
}

func (r *memAdRepo) DeleteAd(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[id]; !ok {
		return domain.NewNotFound("The ad was not found, and could not be deleted.")
	}
	delete(r.ads, id)
	return nil
}

func (r *memAdRepo) ListAds(_ context.Context) []domain.Ad {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ad{}
	for _, a := range r.ads {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memAdRepo) ListActiveAds(ctx context.Context) []domain.Ad {
	return r.ListAds(ctx)
}

func (r *memAdRepo) AdExists(_ context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ads[id]
	return ok
}

// scriptedGenerator returns its candidates in order and records requested lengths.
type scriptedGenerator struct {
	candidates []string
	lengths    []int
}

func (g *scriptedGenerator) Generate(_ slug.Style, length int, _ bool) (string, error) {
	g.lengths = append(g.lengths, length)
	next := g.candidates[0]
	g.candidates = g.candidates[1:]
	return next, nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixedClock() *fixedClock { return &fixedClock{t: time.Unix(1_700_000_000, 0)} }
