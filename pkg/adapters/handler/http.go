package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

type HTTPHandler struct {
	service        ports.LinkService
	siteURL        string
	redirectStatus int
	logger         *slog.Logger
}

func NewHTTPHandler(service ports.LinkService, siteURL string, useTempRedirect bool, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	status := http.StatusPermanentRedirect
	if useTempRedirect {
		status = http.StatusTemporaryRedirect
	}
	return &HTTPHandler{
		service:        service,
		siteURL:        strings.TrimRight(siteURL, "/"),
		redirectStatus: status,
		logger:         logger,
	}
}

// CreateLinkResponse is returned by Create.
type CreateLinkResponse struct {
	Response
	ShortURL   string `json:"shorturl"`
	ExpiryTime int64  `json:"expiry_time"`
	AdID       *int64 `json:"ad_id"`
}

// ExpandLinkResponse is returned by Expand.
type ExpandLinkResponse struct {
	Response
	LongURL    string `json:"longurl"`
	Hits       int64  `json:"hits"`
	ExpiryTime int64  `json:"expiry_time"`
	AdID       *int64 `json:"ad_id"`
}

// Redirect counts a hit and sends the caller to the long URL.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	shortlink := r.PathValue("shortlink")
	longlink, ok := h.service.FindAndAddHit(r.Context(), shortlink)
	if !ok {
		writeFailure(w, http.StatusNotFound, "The shortlink does not exist on the server!")
		return
	}
	http.Redirect(w, r, longlink, h.redirectStatus)
}

// Create adds a link. Callers without a session are treated as public.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[domain.NewLinkRequest](r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request!")
		return
	}
	req.Public = UserFromContext(r.Context()) == ""

	created, err := h.service.AddLink(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateLinkResponse{
		Response:   Response{Success: true},
		ShortURL:   h.siteURL + "/" + created.Shortlink,
		ExpiryTime: created.ExpiryTime,
		AdID:       created.AdID,
	})
}

// Expand looks up a shortlink sent as the plain request body.
func (h *HTTPHandler) Expand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request!")
		return
	}

	link, err := h.service.FindURL(r.Context(), strings.TrimSpace(string(body)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ExpandLinkResponse{
		Response:   Response{Success: true},
		LongURL:    link.Longlink,
		Hits:       link.Hits,
		ExpiryTime: link.ExpiryTime,
		AdID:       link.AdID,
	})
}

// List returns live links. Unparseable paging values are ignored.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := domain.PageParams{After: q.Get("page_after")}
	if n, err := strconv.ParseInt(q.Get("page_no"), 10, 64); err == nil && n > 0 {
		page.PageNo = n
	}
	if n, err := strconv.ParseInt(q.Get("page_size"), 10, 64); err == nil && n > 0 {
		page.PageSize = n
	}

	writeJSON(w, http.StatusOK, h.service.GetAll(r.Context(), page))
}

func (h *HTTPHandler) Edit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[domain.EditLinkRequest](r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Malformed request!")
		return
	}

	if err := h.service.EditLink(r.Context(), req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLink(r.Context(), r.PathValue("shortlink")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w)
}
