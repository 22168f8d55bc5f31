package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

// maxRequestBodySize caps JSON request bodies at 1MB.
const maxRequestBodySize = 1 << 20

// Response is the envelope for every non-listing API reply.
type Response struct {
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Reason  string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, Response{Success: false, Error: true, Reason: reason})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// writeError maps a client error kind to its status and hides everything else.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var se *domain.ServerError
	var ce *domain.ClientError
	if !errors.As(err, &se) && errors.As(err, &ce) {
		writeFailure(w, kindToStatus(ce.Kind), ce.Reason)
		return
	}
	logger.ErrorContext(r.Context(), "request failed",
		"request_id", GetRequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeFailure(w, http.StatusInternalServerError, "Something went wrong!")
}

func kindToStatus(kind domain.Kind) int {
	switch kind {
	case domain.Invalid:
		return http.StatusBadRequest
	case domain.NotFound:
		return http.StatusNotFound
	case domain.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object from the body into T.
func decodeJSON[T any](r *http.Request) (T, error) {
	var v T

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return v, fmt.Errorf("request body too large (max %d bytes)", maxRequestBodySize)
		case errors.Is(err, io.EOF):
			return v, errors.New("request body is empty")
		default:
			return v, fmt.Errorf("malformed request: %w", err)
		}
	}
	return v, nil
}
