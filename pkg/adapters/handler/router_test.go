package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLinkService struct {
	addReq   domain.NewLinkRequest
	addErr   error
	editReq  domain.EditLinkRequest
	editErr  error
	page     domain.PageParams
	links    map[string]domain.Link
	deleted  string
	deleteFn func(string) error
}

func (s *stubLinkService) AddLink(_ context.Context, req domain.NewLinkRequest) (domain.CreatedLink, error) {
	s.addReq = req
	if s.addErr != nil {
		return domain.CreatedLink{}, s.addErr
	}
	shortlink := req.Shortlink
	if shortlink == "" {
		shortlink = "gen-slug"
	}
	return domain.CreatedLink{Shortlink: shortlink, ExpiryTime: 42, AdID: req.AdID}, nil
}

func (s *stubLinkService) FindURL(_ context.Context, shortlink string) (domain.Link, error) {
	l, ok := s.links[shortlink]
	if !ok {
		return domain.Link{}, domain.NewNotFound("The shortlink does not exist on the server!")
	}
	return l, nil
}

func (s *stubLinkService) FindAndAddHit(_ context.Context, shortlink string) (string, bool) {
	l, ok := s.links[shortlink]
	return l.Longlink, ok
}

func (s *stubLinkService) EditLink(_ context.Context, req domain.EditLinkRequest) error {
	s.editReq = req
	return s.editErr
}

func (s *stubLinkService) DeleteLink(_ context.Context, shortlink string) error {
	s.deleted = shortlink
	if s.deleteFn != nil {
		return s.deleteFn(shortlink)
	}
	return nil
}

func (s *stubLinkService) GetAll(_ context.Context, page domain.PageParams) []domain.Link {
	s.page = page
	return []domain.Link{}
}

type stubAdService struct {
	createErr error
	editID    int64
}

func (s *stubAdService) CreateAd(_ context.Context, req domain.AdRequest) (domain.Ad, error) {
	if s.createErr != nil {
		return domain.Ad{}, s.createErr
	}
	return domain.Ad{ID: 1, Name: req.Name}, nil
}

func (s *stubAdService) EditAd(_ context.Context, id int64, req domain.AdRequest) (domain.Ad, error) {
	s.editID = id
	return domain.Ad{ID: id, Name: req.Name}, nil
}

func (s *stubAdService) DeleteAd(_ context.Context, id int64) error {
	return domain.NewNotFound("The ad was not found, and could not be deleted.")
}

func (s *stubAdService) ListAds(context.Context) []domain.Ad { return []domain.Ad{{ID: 1}, {ID: 2}} }

func (s *stubAdService) ListActiveAds(context.Context) []domain.Ad { return []domain.Ad{{ID: 1}} }

func newTestRouter(t *testing.T, links *stubLinkService, ads *stubAdService, public bool) http.Handler {
	t.Helper()
	cfg := testConfig()
	cfg.Public.Enabled = public
	cfg.Public.RateLimitRPS = 100
	cfg.Public.RateLimitBurst = 100
	return NewRouter(cfg, links, ads, discardLogger())
}

func do(t *testing.T, h http.Handler, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if admin {
		req.Header.Set(APIKeyHeader, "k3y")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Redirect(t *testing.T) {
	links := &stubLinkService{links: map[string]domain.Link{"go": {Shortlink: "go", Longlink: "https://go.dev"}}}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodGet, "/go", "", false)
	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "https://go.dev", rr.Header().Get("Location"))

	rr = do(t, router, http.MethodGet, "/missing", "", false)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_CreateLink(t *testing.T) {
	links := &stubLinkService{}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodPost, "/api/new", `{"longlink":"https://x","ad_id":3}`, true)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp CreateLinkResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "http://sho.rt/gen-slug", resp.ShortURL)
	assert.Equal(t, int64(42), resp.ExpiryTime)
	require.NotNil(t, resp.AdID)
	assert.Equal(t, int64(3), *resp.AdID)
	assert.False(t, links.addReq.Public)

	rr = do(t, router, http.MethodPost, "/api/new", `{"longlink":"https://x"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/new", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_CreateLink_PublicMode(t *testing.T) {
	links := &stubLinkService{}
	router := newTestRouter(t, links, &stubAdService{}, true)

	rr := do(t, router, http.MethodPost, "/api/new", `{"longlink":"https://x","public":false}`, false)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, links.addReq.Public)
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{name: "conflict", err: domain.ErrSlugInUse, status: http.StatusConflict, reason: "Short URL is already in use!"},
		{name: "invalid", err: domain.NewInvalid("Short URL is not valid!"), status: http.StatusBadRequest, reason: "Short URL is not valid!"},
		{name: "server", err: domain.NewServerError("add link", errors.New("disk full")), status: http.StatusInternalServerError, reason: "Something went wrong!"},
		{name: "server wrapping client", err: domain.NewServerError("allocate slug", domain.ErrSlugInUse), status: http.StatusInternalServerError, reason: "Something went wrong!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubLinkService{addErr: tt.err}, &stubAdService{}, false)
			rr := do(t, router, http.MethodPost, "/api/new", `{"longlink":"https://x"}`, true)
			assert.Equal(t, tt.status, rr.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.True(t, resp.Error)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.NotContains(t, rr.Body.String(), "disk full")
		})
	}
}

func TestRouter_Expand(t *testing.T) {
	adID := int64(9)
	links := &stubLinkService{links: map[string]domain.Link{
		"go": {Shortlink: "go", Longlink: "https://go.dev", Hits: 4, AdID: &adID},
	}}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodPost, "/api/expand", "go\n", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ExpandLinkResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "https://go.dev", resp.LongURL)
	assert.Equal(t, int64(4), resp.Hits)
	require.NotNil(t, resp.AdID)
	assert.Equal(t, adID, *resp.AdID)

	rr = do(t, router, http.MethodPost, "/api/expand", "nope", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_ListPaging(t *testing.T) {
	links := &stubLinkService{}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodGet, "/api/all?page_after=t2&page_size=1", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PageParams{After: "t2", PageSize: 1}, links.page)
	assert.JSONEq(t, `[]`, rr.Body.String())

	do(t, router, http.MethodGet, "/api/all?page_no=abc&page_size=-4", "", true)
	assert.Equal(t, domain.PageParams{}, links.page)
}

func TestRouter_EditAdIDTriState(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.AdIDUpdate
	}{
		{name: "missing key keeps", body: `{"shortlink":"a","longlink":"https://x"}`, want: domain.KeepAdID()},
		{name: "null clears", body: `{"shortlink":"a","longlink":"https://x","ad_id":null}`, want: domain.ClearAdID()},
		{name: "value sets", body: `{"shortlink":"a","longlink":"https://x","ad_id":5}`, want: domain.SetAdID(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := &stubLinkService{}
			router := newTestRouter(t, links, &stubAdService{}, false)
			rr := do(t, router, http.MethodPut, "/api/edit", tt.body, true)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, links.editReq.AdID)
		})
	}
}

func TestRouter_EditNotFound(t *testing.T) {
	links := &stubLinkService{editErr: domain.NewNotFound("The shortlink was not found, and could not be edited.")}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodPut, "/api/edit", `{"shortlink":"a","longlink":"b"}`, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Delete(t *testing.T) {
	links := &stubLinkService{}
	router := newTestRouter(t, links, &stubAdService{}, false)

	rr := do(t, router, http.MethodDelete, "/api/del/old-link", "", true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "old-link", links.deleted)

	rr = do(t, router, http.MethodDelete, "/api/del/old-link", "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_Ads(t *testing.T) {
	ads := &stubAdService{}
	router := newTestRouter(t, &stubLinkService{}, ads, false)

	rr := do(t, router, http.MethodGet, "/api/ads/active", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":1,"name":"","image_url":"","ad_link":"","expiry_time":0,"countdown_seconds":0}]`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/api/ads", "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/ads", `{"name":"n","image_url":"i","ad_link":"l"}`, true)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, router, http.MethodPut, "/api/ads/7", `{"name":"n","image_url":"i","ad_link":"l"}`, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(7), ads.editID)

	rr = do(t, router, http.MethodPut, "/api/ads/zero", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodDelete, "/api/ads/3", "", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	conflicting := newTestRouter(t, &stubLinkService{}, &stubAdService{createErr: domain.NewConflict("Ad name is already in use!")}, false)
	rr = do(t, conflicting, http.MethodPost, "/api/ads", `{"name":"n","image_url":"i","ad_link":"l"}`, true)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRouter_PasswordLogin(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Password = "hunter2"
	router := NewRouter(cfg, &stubLinkService{}, &stubAdService{}, discardLogger())

	rr := do(t, router, http.MethodPost, "/api/login", "wrong", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/login", "hunter2", false)
	require.Equal(t, http.StatusOK, rr.Code)

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == authCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/api/all", nil)
	req.AddCookie(session)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubLinkService{}, &stubAdService{}, false)
	rr := do(t, router, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}
