package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/config"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, links ports.LinkService, ads ports.AdService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := NewHTTPHandler(links, cfg.SiteURL, cfg.Redirect.UseTempRedirect, logger)
	ah := NewAdHandler(ads, logger)
	mw := NewMiddleware(cfg, logger)
	authHandler := NewAuthHandler(cfg, logger)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /{shortlink}", h.Redirect)
	mux.HandleFunc("GET /api/ads/active", ah.ListActive)
	mux.HandleFunc("POST /api/login", authHandler.PasswordLogin)
	mux.HandleFunc("GET /api/logout", authHandler.Logout)
	if cfg.GoogleLoginEnabled() {
		mux.HandleFunc("GET /auth/google/login", authHandler.Login)
		mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	}

	// Open to everyone in public mode, admins otherwise
	mux.Handle("POST /api/new", mw.PublicOrAdmin(http.HandlerFunc(h.Create)))

	// Admin routes
	protected := func(f http.HandlerFunc) http.Handler { return mw.AuthMiddleware(f) }
	mux.Handle("POST /api/expand", protected(h.Expand))
	mux.Handle("GET /api/all", protected(h.List))
	mux.Handle("PUT /api/edit", protected(h.Edit))
	mux.Handle("DELETE /api/del/{shortlink}", protected(h.Delete))
	mux.Handle("GET /api/ads", protected(ah.List))
	mux.Handle("POST /api/ads", protected(ah.Create))
	mux.Handle("PUT /api/ads/{id}", protected(ah.Update))
	mux.Handle("DELETE /api/ads/{id}", protected(ah.Delete))

	return RequestID(Logger(logger)(Recovery(logger)(mux)))
}
