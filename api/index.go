package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/app"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/config"
)

var (
	once    sync.Once
	mux     http.Handler
	initErr error
)

// Serverless instances are short-lived, so there is no background sweeper
// here; use a remote libsql DATABASE_URL and run `cli cleanup` on a schedule.
func setup() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	a, err := app.New(context.Background(), cfg, app.NewLogger(cfg))
	if err != nil {
		initErr = err
		return
	}
	mux = a.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	mux.ServeHTTP(w, r)
}
