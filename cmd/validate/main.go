// One-shot validation runs from the terminal.
// Run with: go run ./cmd/validate [-batch n] [-all]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rostervet/internal/config"
	"rostervet/internal/service"
	"rostervet/internal/store"
	"rostervet/internal/verify"
)

func main() {
	batch := flag.Int("batch", 0, "records per batch (default VALIDATION_BATCH_SIZE)")
	all := flag.Bool("all", false, "keep running batches until no progress is made")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	timeout := config.VerifyTimeout()
	identityVerifier, err := verify.NewIdentityVerifier(config.VerifierProvider(), config.RegistryURL(), timeout, logger)
	if err != nil {
		logger.Fatal("failed to build identity verifier", zap.Error(err))
	}
	addressVerifier, err := verify.NewAddressVerifier(config.VerifierProvider(), config.GeocoderURL(), timeout, logger)
	if err != nil {
		logger.Fatal("failed to build address verifier", zap.Error(err))
	}

	orch := service.NewOrchestrator(store.NewProviderStore(pool), identityVerifier, addressVerifier, logger)
	orch.SetPacing(config.VerifyPacing())

	batchSize := config.ValidationBatchSize()
	if *batch > 0 {
		batchSize = *batch
	}

	for {
		report, err := orch.Run(ctx, batchSize)
		if err != nil {
			logger.Fatal("validation run failed", zap.Error(err))
		}
		printReport(report)

		if !*all || !madeProgress(report) || ctx.Err() != nil {
			return
		}
	}
}

// madeProgress reports whether the run moved at least one record out of the
// pending pool. Records that stay pending, for any reason, come back on the
// next fetch, so looping on them would re-query the public authorities for
// the same records forever.
func madeProgress(r *service.BatchReport) bool {
	return r.Validated+r.Review > 0
}

func printReport(r *service.BatchReport) {
	fmt.Printf("run %s: fetched=%d processed=%d validated=%d review=%d pending=%d errors=%d (%s)\n",
		r.RunID, r.Fetched, r.Processed, r.Validated, r.Review, r.Pending, r.Errors,
		r.Duration.Round(time.Millisecond))
}
