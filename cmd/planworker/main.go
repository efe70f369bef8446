// Command planworker consumes queued optimization jobs from SQS,
// solves them and writes results back to the blob store. It is the
// worker half of the durable backend; the API side is plannerd.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/talgya/cropplan/internal/config"
	"github.com/talgya/cropplan/internal/jobs"
	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
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
	if cfg.Backend != config.BackendDurable {
		slog.Error("planworker requires PLANNER_BACKEND=durable")
		os.Exit(1)
	}

	slog.Info("crop planning worker",
		"table", cfg.JobTable,
		"bucket", cfg.Bucket,
		"queue", cfg.QueueURL,
		"concurrency", cfg.Workers,
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		slog.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	blobs := store.NewS3Blobs(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.BucketPrefix)
	table := store.NewDynamoJobs(dynamodb.NewFromConfig(awsCfg), cfg.JobTable)
	bus := store.NewSQSBus(sqs.NewFromConfig(awsCfg), cfg.QueueURL)

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
	}

	proc := jobs.NewProcessor(blobs, table, bus, solver, journal, logger)
	proc.Concurrency = cfg.Workers

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("processor failed", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
