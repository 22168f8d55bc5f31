package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/app"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/config"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

const usage = "expected 'export', 'import', 'cleanup' or 'migrate' subcommands"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(context.Background(), cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string) error {
	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	switch cmd {
	case "export", "import", "cleanup", "migrate":
	default:
		return errors.New(usage)
	}

	// Opening the store runs any pending migrations.
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "export":
		if err := exportCmd.Parse(args); err != nil {
			return err
		}
		return doExport(ctx, a.Links, os.Stdout)
	case "import":
		if err := importCmd.Parse(args); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.PrintDefaults()
			return errors.New("import: -file is required")
		}
		f, err := os.Open(*importFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		n, err := doImport(ctx, a.Links, f, time.Now(), logger)
		if err != nil {
			return err
		}
		logger.Info("import finished", "imported", n)
		return nil
	case "cleanup":
		_, err := a.Sweeper.RunOnce(ctx)
		return err
	default:
		logger.Info("database is up to date", "url", cfg.DatabaseURL)
		return nil
	}
}

type dumper interface {
	Dump(ctx context.Context) ([]domain.Link, error)
}

func doExport(ctx context.Context, links dumper, w io.Writer) error {
	all, err := links.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(all); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	return nil
}

// doImport re-adds exported links. Expired rows are dropped and ad references
// are not carried over, since ads are not part of the export. Hit counts restart at 0.
func doImport(ctx context.Context, links ports.LinkService, r io.Reader, now time.Time, logger *slog.Logger) (int, error) {
	var rows []domain.Link
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}

	count := 0
	for _, l := range rows {
		var delay int64
		if l.ExpiryTime > 0 {
			delay = l.ExpiryTime - now.Unix()
			if delay <= 0 {
				logger.Info("skipping expired link", "shortlink", l.Shortlink)
				continue
			}
		}

		_, err := links.AddLink(ctx, domain.NewLinkRequest{
			Shortlink:   l.Shortlink,
			Longlink:    l.Longlink,
			ExpiryDelay: delay,
		})
		if errors.Is(err, domain.ErrSlugInUse) {
			logger.Info("skipping existing shortlink", "shortlink", l.Shortlink)
			continue
		}
		if err != nil {
			logger.Warn("failed to import link", "shortlink", l.Shortlink, "error", err)
			continue
		}
		count++
	}
	return count, nil
}
