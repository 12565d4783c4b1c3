package commands

import (
	"context"
	"fmt"

	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/internal/ledger"
	"github.com/wonny/quantperf/pkg/config"
	"github.com/wonny/quantperf/pkg/database"
	"github.com/wonny/quantperf/pkg/httputil"
	"github.com/wonny/quantperf/pkg/logger"
)

// sourceFlags select where a run's ledger is loaded from
type sourceFlags struct {
	file   string
	runID  string
	source string
	url    string
	dir    string
}

// apply overrides the ledger config with explicitly set flags
func (f sourceFlags) apply(cfg *config.Config) {
	if f.source != "" {
		cfg.Ledger.Source = f.source
	}
	if f.url != "" {
		cfg.Ledger.BaseURL = f.url
	}
	if f.dir != "" {
		cfg.Ledger.Dir = f.dir
	}
}

// openSource builds the configured ledger source, wrapped with load timing.
// The returned close function releases the database pool if one was opened.
func openSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (ledger.Source, func(), error) {
	noop := func() {}

	switch cfg.Ledger.Source {
	case "file", "":
		return ledger.WithTiming(ledger.NewFileSource(cfg.Ledger.Dir), log), noop, nil

	case "db":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		repo := ledger.NewRepository(db.Pool)
		return ledger.WithTiming(repo, log), db.Close, nil

	case "http":
		if cfg.Ledger.BaseURL == "" {
			return nil, noop, fmt.Errorf("http source requires --url or LEDGER_BASE_URL")
		}
		client := httputil.New(cfg, log)
		return ledger.WithTiming(ledger.NewHTTPSource(client, cfg.Ledger.BaseURL), log), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown ledger source %q (expected file, db or http)", cfg.Ledger.Source)
	}
}

// loadLedger loads the ledger named by --file or --run-id and returns it with its run id
func loadLedger(ctx context.Context, cfg *config.Config, log *logger.Logger, f sourceFlags) (*contracts.Ledger, string, error) {
	switch {
	case f.file != "" && f.runID != "":
		return nil, "", fmt.Errorf("--file and --run-id are mutually exclusive")

	case f.file != "":
		var runID string
		load := ledger.SourceFunc(func(ctx context.Context, path string) (*contracts.Ledger, error) {
			doc, err := ledger.LoadDocument(path)
			if err != nil {
				return nil, err
			}
			l, err := doc.Ledger()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			runID = doc.RunID
			return l, nil
		})

		l, err := ledger.WithTiming(load, log).Load(ctx, f.file)
		if err != nil {
			return nil, "", err
		}
		return l, runID, nil

	case f.runID != "":
		f.apply(cfg)
		src, closeSource, err := openSource(ctx, cfg, log)
		if err != nil {
			return nil, "", err
		}
		defer closeSource()

		l, err := src.Load(ctx, f.runID)
		if err != nil {
			return nil, "", err
		}
		return l, f.runID, nil

	default:
		return nil, "", fmt.Errorf("either --file or --run-id is required")
	}
}
