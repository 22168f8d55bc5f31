package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

type AdHandler struct {
	service ports.AdService
	logger  *slog.Logger
}

func NewAdHandler(service ports.AdService, logger *slog.Logger) *AdHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdHandler{service: service, logger: logger}
}

// AdResponse wraps a single ad.
type AdResponse struct {
	Response
	Ad domain.Ad `json:"ad"`
}

func (h *AdHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListAds(r.Context()))
}

func (h *AdHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListActiveAds(r.Context()))
}

func (h *AdHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[domain.AdRequest](r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request!")
		return
	}

	ad, err := h.service.CreateAd(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, AdResponse{Response: Response{Success: true}, Ad: ad})
}

func (h *AdHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAdID(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[domain.AdRequest](r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request!")
		return
	}

	ad, err := h.service.EditAd(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AdResponse{Response: Response{Success: true}, Ad: ad})
}

func (h *AdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAdID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAd(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w)
}

func parseAdID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, "Invalid ad id.")
		return 0, false
	}
	return id, true
}
