package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/app"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/config"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg, err := config.Parse()
	require.NoError(t, err)
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "cli.sqlite")

	a, err := app.New(context.Background(), cfg, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestApp(t)

	_, err := src.Links.AddLink(ctx, domain.NewLinkRequest{Shortlink: "keep", Longlink: "https://a"})
	require.NoError(t, err)
	_, err = src.Links.AddLink(ctx, domain.NewLinkRequest{Shortlink: "soon", Longlink: "https://b", ExpiryDelay: 3600})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doExport(ctx, src.Links, &buf))

	var exported []domain.Link
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 2)

	dst := newTestApp(t)
	_, err = dst.Links.AddLink(ctx, domain.NewLinkRequest{Shortlink: "keep", Longlink: "https://already-here"})
	require.NoError(t, err)

	n, err := doImport(ctx, dst.Links, &buf, time.Now(), discard())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	link, err := dst.Links.FindURL(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "https://already-here", link.Longlink)

	link, err = dst.Links.FindURL(ctx, "soon")
	require.NoError(t, err)
	assert.Positive(t, link.ExpiryTime)
}

func TestImportSkipsExpiredRows(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	now := time.Now()
	input := `[
		{"shortlink":"old","longlink":"https://old","hits":3,"expiry_time":` + strconv.FormatInt(now.Unix()-10, 10) + `},
		{"shortlink":"new","longlink":"https://new","hits":0,"expiry_time":0}
	]`

	n, err := doImport(ctx, a.Links, strings.NewReader(input), now, discard())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = a.Links.FindURL(ctx, "old")
	assert.Equal(t, domain.NotFound, domain.KindOf(err))
}

func TestImportRejectsMalformedInput(t *testing.T) {
	a := newTestApp(t)
	_, err := doImport(context.Background(), a.Links, strings.NewReader("{not json"), time.Now(), discard())
	assert.Error(t, err)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)
	err = run(context.Background(), cfg, discard(), "frobnicate", nil)
	assert.EqualError(t, err, usage)
}
