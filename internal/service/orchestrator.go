package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rostervet/internal/domain"
)

const (
	// DefaultPacing is the minimum interval between calls to one external
	// authority. Both upstreams are free public services; pacing is a hard
	// requirement, not a tunable.
	DefaultPacing = 1 * time.Second

	DefaultBatchSize = 25
)

// BatchReport summarizes one validation run. Counts are observational only;
// the persisted records are the source of truth.
type BatchReport struct {
	RunID     uuid.UUID     `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Fetched   int           `json:"fetched"`
	Processed int           `json:"processed"`
	Validated int           `json:"validated"`
	Review    int           `json:"review"`
	Pending   int           `json:"pending"`
	Errors    int           `json:"errors"`
}

// Orchestrator runs validation batches: it pulls pending records, verifies
// each against both authorities with per-authority pacing, scores and
// classifies the signals, and persists the result one atomic update per
// record. A failed signal never aborts a record; a failed record never aborts
// the batch.
type Orchestrator struct {
	store    domain.ProviderStore
	identity domain.IdentityVerifier
	address  domain.AddressVerifier
	scoring  ScoringConfig
	logger   *zap.Logger

	// One gate per authority so a concurrent caller still cannot exceed
	// the courtesy interval toward either upstream.
	identityGate *rate.Limiter
	addressGate  *rate.Limiter
}

func NewOrchestrator(store domain.ProviderStore, identity domain.IdentityVerifier, address domain.AddressVerifier, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		identity: identity,
		address:  address,
		scoring:  DefaultScoringConfig(),
		logger:   logger,
	}
	o.SetPacing(DefaultPacing)
	return o
}

// SetPacing overrides the minimum inter-call interval toward each authority.
// Zero or negative disables pacing (tests only).
func (o *Orchestrator) SetPacing(d time.Duration) {
	limit := rate.Inf
	if d > 0 {
		limit = rate.Every(d)
	}
	o.identityGate = rate.NewLimiter(limit, 1)
	o.addressGate = rate.NewLimiter(limit, 1)
}

// SetScoring overrides the baseline weights and thresholds.
func (o *Orchestrator) SetScoring(cfg ScoringConfig) {
	o.scoring = cfg
}

// Run executes one validation batch of at most batchSize records. The batch
// is pulled once up front; cancellation is honored between records, never
// mid-record, so every persisted record is fully consistent. Only a failure
// to fetch the batch is returned as an error; per-record store failures are
// counted in the report.
func (o *Orchestrator) Run(ctx context.Context, batchSize int) (*BatchReport, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	report := &BatchReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	records, err := o.store.FetchPending(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch pending records: %w", err)
	}
	report.Fetched = len(records)

	o.logger.Info("validation batch started",
		zap.String("run_id", report.RunID.String()),
		zap.Int("records", len(records)))

	for i := range records {
		if ctx.Err() != nil {
			o.logger.Info("validation batch cancelled",
				zap.String("run_id", report.RunID.String()),
				zap.Int("remaining", len(records)-i))
			break
		}

		rec := &records[i]
		identityConf, npiNumber := o.verifyIdentity(ctx, rec)
		addressConf := o.verifyAddress(ctx, rec)
		aggregate, status := o.scoring.Classify(identityConf, addressConf)

		upd := domain.ValidationUpdate{
			IdentityConfidence: identityConf,
			AddressConfidence:  addressConf,
			Status:             status,
			NPINumber:          npiNumber,
		}
		if err := o.store.UpdateValidation(ctx, rec.ID, upd); err != nil {
			report.Errors++
			o.logger.Warn("failed to persist validation result",
				zap.Int64("provider_id", rec.ID),
				zap.Error(err))
			continue
		}

		report.Processed++
		switch status {
		case domain.StatusValidated:
			report.Validated++
		case domain.StatusReview:
			report.Review++
		default:
			report.Pending++
		}

		o.logger.Info("provider validated",
			zap.Int64("provider_id", rec.ID),
			zap.Float64("identity_confidence", identityConf),
			zap.Float64("address_confidence", addressConf),
			zap.Float64("aggregate", aggregate),
			zap.String("status", string(status)))
	}

	report.Duration = time.Since(report.StartedAt)
	o.logger.Info("validation batch finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("processed", report.Processed),
		zap.Int("validated", report.Validated),
		zap.Int("review", report.Review),
		zap.Int("pending", report.Pending),
		zap.Int("errors", report.Errors),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// verifyIdentity runs the identity signal for one record. Records without two
// name tokens skip the registry entirely and score zero. A retryable failure
// is retried exactly once; whatever comes back is scored as-is.
func (o *Orchestrator) verifyIdentity(ctx context.Context, rec *domain.Provider) (confidence float64, npiNumber *string) {
	first, last, ok := rec.NameTokens()
	if !ok {
		o.logger.Debug("skipping identity verification, name unparseable",
			zap.Int64("provider_id", rec.ID),
			zap.String("full_name", rec.FullName))
		return ScoreError, nil
	}

	out := o.callIdentity(ctx, first, last)
	if out.Kind == domain.OutcomeError && out.Err != nil && out.Err.Retryable {
		out = o.callIdentity(ctx, first, last)
	}

	if out.Kind == domain.OutcomeFound {
		npiNumber = &out.AuthorityID
	}
	return ScoreIdentity(out), npiNumber
}

func (o *Orchestrator) callIdentity(ctx context.Context, first, last string) domain.Outcome {
	if err := o.identityGate.Wait(ctx); err != nil {
		return domain.ErrorOutcome(&domain.QueryError{Kind: domain.ErrKindTransport, Cause: err})
	}
	return o.identity.VerifyIdentity(ctx, first, last)
}

// verifyAddress runs the address signal for one record. Records missing any
// address field skip the geocoder and score zero, same as a non-match.
func (o *Orchestrator) verifyAddress(ctx context.Context, rec *domain.Provider) float64 {
	if !rec.HasFullAddress() {
		o.logger.Debug("skipping address verification, incomplete address",
			zap.Int64("provider_id", rec.ID))
		return ScoreNotFound
	}

	out := o.callAddress(ctx, rec.Address, rec.City, rec.State)
	if out.Kind == domain.OutcomeError && out.Err != nil && out.Err.Retryable {
		out = o.callAddress(ctx, rec.Address, rec.City, rec.State)
	}

	return ScoreAddress(out)
}

func (o *Orchestrator) callAddress(ctx context.Context, street, city, state string) domain.Outcome {
	if err := o.addressGate.Wait(ctx); err != nil {
		return domain.ErrorOutcome(&domain.QueryError{Kind: domain.ErrKindTransport, Cause: err})
	}
	return o.address.VerifyAddress(ctx, street, city, state)
}
