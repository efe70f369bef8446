// Command plannerd serves the crop planning API: synchronous and
// asynchronous optimization, job tracking, plan templates, timeline
// metrics and CSV exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dustin/go-humanize"

	"github.com/talgya/cropplan/internal/api"
	"github.com/talgya/cropplan/internal/config"
	"github.com/talgya/cropplan/internal/jobs"
	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
	"github.com/talgya/cropplan/internal/templates"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("crop planning service",
		"version", api.Version,
		"backend", cfg.Backend,
		"port", cfg.Port,
		"max_body", humanize.IBytes(uint64(cfg.MaxBodyBytes)),
		"sync_enabled", cfg.SyncEnabled,
	)

	solver := &planner.Solver{
		DefaultTimeout: cfg.DefaultTimeout,
		MaxTimeout:     cfg.MaxTimeout,
		Workers:        cfg.SolverWorkers,
	}

	var journal *jobs.Journal
	if cfg.JournalPath != "" {
		journal, err = jobs.OpenJournal(cfg.JournalPath)
		if err != nil {
			slog.Error("failed to open job journal", "path", cfg.JournalPath, "error", err)
			os.Exit(1)
		}
		defer journal.Close()
		slog.Info("job journal opened", "path", cfg.JournalPath)
	}

	var backend jobs.Backend
	var blobs store.BlobStore
	switch cfg.Backend {
	case config.BackendInMemory:
		mem := jobs.NewInMemoryBackend(solver, cfg.Workers, journal, logger)
		defer mem.Close()
		backend = mem

	case config.BackendDurable:
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			slog.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		s3Blobs := store.NewS3Blobs(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.BucketPrefix)
		table := store.NewDynamoJobs(dynamodb.NewFromConfig(awsCfg), cfg.JobTable)
		bus := store.NewSQSBus(sqs.NewFromConfig(awsCfg), cfg.QueueURL)
		backend = jobs.NewStoreBackend(s3Blobs, table, bus, journal, cfg.JobTTL, logger)
		blobs = s3Blobs
		slog.Info("durable backend wired",
			"table", cfg.JobTable,
			"bucket", cfg.Bucket,
			"queue", cfg.QueueURL,
		)
	}

	catalog, err := templates.Load(cfg.TemplatesDir)
	if err != nil {
		slog.Error("failed to load templates", "dir", cfg.TemplatesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("templates loaded", "count", len(catalog.List()))

	server := &api.Server{
		Solver:          solver,
		Backend:         backend,
		Catalog:         catalog,
		Blobs:           blobs,
		AuthToken:       cfg.AuthToken,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		SyncEnabled:     cfg.SyncEnabled,
		SyncTimeout:     cfg.SyncTimeout,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("stopped")
}
