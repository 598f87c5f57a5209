package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ersonp/comply-core/internal/application/handlers"
	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/domain/services"
	"github.com/ersonp/comply-core/internal/infrastructure/archive/gcs"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/identity/google"
	"github.com/ersonp/comply-core/internal/infrastructure/ledger/filestore"
	"github.com/ersonp/comply-core/internal/infrastructure/llm/openai"
	"github.com/ersonp/comply-core/internal/infrastructure/logging"
	"github.com/ersonp/comply-core/internal/infrastructure/metrics"
	"github.com/ersonp/comply-core/internal/infrastructure/runlog/sqlite"
	"github.com/ersonp/comply-core/internal/infrastructure/sourcecontrol/github"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config          *config.Config
	Logger          *slog.Logger
	CheckHandler    *handlers.CheckHandler
	EvidenceHandler *handlers.EvidenceHandler
	ImportHandler   *handlers.ImportHandler
	AdviseHandler   *handlers.AdviseHandler
	RunsHandler     *handlers.RunsHandler
}

// depsOptions selects optional components.
type depsOptions struct {
	archive bool // Archive records to GCS before pruning
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withOptions(ctx, depsOptions{}, fn)
}

// withOptions is withDeps with optional components enabled.
func withOptions(ctx context.Context, opts depsOptions, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	recorder := metrics.NewRecorder()
	if cfg.Metrics.Textfile != "" {
		defer func() {
			if werr := recorder.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
				logger.Warn("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
			}
		}()
	}

	store, err := filestore.New(cfg.Ledger.Path, filestore.WithLogger(logger), filestore.WithMetrics(recorder))
	if err != nil {
		return fmt.Errorf("opening evidence ledger: %w", err)
	}

	ledgerOpts := []services.LedgerOption{services.WithLedgerMetrics(recorder)}
	if opts.archive {
		if !cfg.ArchiveEnabled() {
			return errors.New("archiving requires archive.bucket in config")
		}
		archiver, err := gcs.NewArchiver(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("creating archiver: %w", err)
		}
		defer archiver.Close()
		ledgerOpts = append(ledgerOpts, services.WithArchiver(archiver))
	}
	ledger := services.NewEvidenceLedger(store, logger, ledgerOpts...)

	var runLog ports.RunLog
	if cfg.RunLog.Path != "" {
		db, err := sqlite.NewRunLog(cfg.RunLog)
		if err != nil {
			return fmt.Errorf("opening run log: %w", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensuring run log schema: %w", err)
		}
		runLog = db
	}

	var sourceControl ports.SourceControlClient
	if cfg.GitHubEnabled() {
		client, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return fmt.Errorf("creating github client: %w", err)
		}
		sourceControl = client
	}

	var identity ports.IdentityClient
	if cfg.GoogleEnabled() {
		client, err := google.NewClient(ctx, cfg.Google)
		if err != nil {
			return fmt.Errorf("creating google directory client: %w", err)
		}
		identity = client
	}

	var advisor ports.Advisor
	if cfg.LLM.APIKey != "" {
		client, err := openai.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}
		advisor = client
	}

	checkService := services.NewCheckService(ledger, sourceControl, identity, runLog, recorder, logger)

	deps := &Deps{
		Config:          cfg,
		Logger:          logger,
		CheckHandler:    handlers.NewCheckHandler(checkService),
		EvidenceHandler: handlers.NewEvidenceHandler(ledger),
		ImportHandler:   handlers.NewImportHandler(services.NewImportService(ledger)),
		AdviseHandler:   handlers.NewAdviseHandler(ledger, advisor),
		RunsHandler:     handlers.NewRunsHandler(runLog),
	}

	return fn(deps)
}
