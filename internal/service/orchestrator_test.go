package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"rostervet/internal/domain"
	"rostervet/internal/verify"
)

type mockProviderStore struct {
	pending  []domain.Provider
	fetchErr error

	updates  map[int64]domain.ValidationUpdate
	failIDs  map[int64]bool
	onUpdate func(id int64)
}

func newMockProviderStore(pending ...domain.Provider) *mockProviderStore {
	return &mockProviderStore{
		pending: pending,
		updates: make(map[int64]domain.ValidationUpdate),
		failIDs: make(map[int64]bool),
	}
}

func (m *mockProviderStore) FetchPending(ctx context.Context, limit int) ([]domain.Provider, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if limit < len(m.pending) {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockProviderStore) UpdateValidation(ctx context.Context, id int64, upd domain.ValidationUpdate) error {
	if m.onUpdate != nil {
		m.onUpdate(id)
	}
	if m.failIDs[id] {
		return errors.New("write failed")
	}
	m.updates[id] = upd
	return nil
}

func (m *mockProviderStore) GetByID(ctx context.Context, id int64) (*domain.Provider, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProviderStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Provider, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProviderStore) Summary(ctx context.Context) (*domain.ValidationSummary, error) {
	return nil, errors.New("not implemented")
}

func testProvider(id int64) domain.Provider {
	return domain.Provider{
		ID:               id,
		FullName:         "Ana Torres, MD",
		Address:          "12 Main St",
		City:             "Austin",
		State:            "TX",
		ValidationStatus: domain.StatusPending,
	}
}

func newTestOrchestrator(store domain.ProviderStore, id *verify.MockIdentityVerifier, addr *verify.MockAddressVerifier) *Orchestrator {
	o := NewOrchestrator(store, id, addr, zap.NewNop())
	o.SetPacing(0)
	return o
}

func TestOrchestrator_FullPipeline(t *testing.T) {
	retryable := &domain.QueryError{Kind: domain.ErrKindTransport, Retryable: true, Cause: errors.New("timeout")}

	tests := []struct {
		name         string
		identity     domain.Outcome
		address      domain.Outcome
		wantIdentity float64
		wantAddress  float64
		wantStatus   domain.ValidationStatus
	}{
		{
			name:         "strong identity, unresolved address",
			identity:     domain.FoundIdentity("1234567890", domain.MatchHigh),
			address:      domain.NotFound(),
			wantIdentity: 0.9,
			wantAddress:  0.0,
			wantStatus:   domain.StatusReview, // aggregate 0.63
		},
		{
			name:         "weak identity, resolved address",
			identity:     domain.FoundIdentity("1234567890", domain.MatchLow),
			address:      domain.FoundAddress("12 Main St, Austin", 30.2, -97.7),
			wantIdentity: 0.7,
			wantAddress:  0.9,
			wantStatus:   domain.StatusReview, // aggregate 0.76
		},
		{
			name:         "identity unreachable, resolved address",
			identity:     domain.ErrorOutcome(retryable),
			address:      domain.FoundAddress("12 Main St, Austin", 30.2, -97.7),
			wantIdentity: 0.0,
			wantAddress:  0.9,
			wantStatus:   domain.StatusPending, // aggregate 0.27
		},
		{
			name:         "both strong",
			identity:     domain.FoundIdentity("1234567890", domain.MatchHigh),
			address:      domain.FoundAddress("12 Main St, Austin", 30.2, -97.7),
			wantIdentity: 0.9,
			wantAddress:  0.9,
			wantStatus:   domain.StatusValidated, // aggregate 0.9
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockProviderStore(testProvider(1))
			idVerifier := verify.NewMockIdentityVerifier()
			idVerifier.Outcome = tt.identity
			addrVerifier := verify.NewMockAddressVerifier()
			addrVerifier.Outcome = tt.address

			o := newTestOrchestrator(store, idVerifier, addrVerifier)
			report, err := o.Run(context.Background(), 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if report.Processed != 1 {
				t.Fatalf("processed = %d, want 1", report.Processed)
			}
			upd, ok := store.updates[1]
			if !ok {
				t.Fatal("record 1 was not persisted")
			}
			if math.Abs(upd.IdentityConfidence-tt.wantIdentity) > 1e-9 {
				t.Errorf("identity confidence = %v, want %v", upd.IdentityConfidence, tt.wantIdentity)
			}
			if math.Abs(upd.AddressConfidence-tt.wantAddress) > 1e-9 {
				t.Errorf("address confidence = %v, want %v", upd.AddressConfidence, tt.wantAddress)
			}
			if upd.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v", upd.Status, tt.wantStatus)
			}
		})
	}
}

func TestOrchestrator_PersistsNPINumberOnMatch(t *testing.T) {
	store := newMockProviderStore(testProvider(1))
	idVerifier := verify.NewMockIdentityVerifier()
	idVerifier.Outcome = domain.FoundIdentity("1234567893", domain.MatchHigh)
	addrVerifier := verify.NewMockAddressVerifier()

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	if _, err := o.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upd := store.updates[1]
	if upd.NPINumber == nil || *upd.NPINumber != "1234567893" {
		t.Errorf("npi number = %v, want 1234567893", upd.NPINumber)
	}
}

func TestOrchestrator_SkipsIdentityOnSingleNameToken(t *testing.T) {
	rec := testProvider(1)
	rec.FullName = "Ana"
	store := newMockProviderStore(rec)
	idVerifier := verify.NewMockIdentityVerifier()
	addrVerifier := verify.NewMockAddressVerifier()
	addrVerifier.Outcome = domain.FoundAddress("12 Main St, Austin", 30.2, -97.7)

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	if _, err := o.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idVerifier.Calls) != 0 {
		t.Errorf("identity verifier called %d times, want 0", len(idVerifier.Calls))
	}
	upd := store.updates[1]
	if upd.IdentityConfidence != 0.0 {
		t.Errorf("identity confidence = %v, want 0.0", upd.IdentityConfidence)
	}
	// 0.7*0 + 0.3*0.9 = 0.27
	if upd.Status != domain.StatusPending {
		t.Errorf("status = %v, want pending", upd.Status)
	}
}

func TestOrchestrator_SkipsAddressOnIncompleteAddress(t *testing.T) {
	rec := testProvider(1)
	rec.City = ""
	store := newMockProviderStore(rec)
	idVerifier := verify.NewMockIdentityVerifier()
	addrVerifier := verify.NewMockAddressVerifier()

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	if _, err := o.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(addrVerifier.Calls) != 0 {
		t.Errorf("address verifier called %d times, want 0", len(addrVerifier.Calls))
	}
	if upd := store.updates[1]; upd.AddressConfidence != 0.0 {
		t.Errorf("address confidence = %v, want 0.0", upd.AddressConfidence)
	}
}

func TestOrchestrator_RetriesOnceOnRetryableError(t *testing.T) {
	retryable := &domain.QueryError{Kind: domain.ErrKindTransport, Retryable: true, Cause: errors.New("timeout")}

	store := newMockProviderStore(testProvider(1))
	idVerifier := verify.NewMockIdentityVerifier()
	idVerifier.Queue = []domain.Outcome{
		domain.ErrorOutcome(retryable),
		domain.FoundIdentity("1234567890", domain.MatchHigh),
	}
	addrVerifier := verify.NewMockAddressVerifier()

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	if _, err := o.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idVerifier.Calls) != 2 {
		t.Fatalf("identity verifier called %d times, want 2", len(idVerifier.Calls))
	}
	if upd := store.updates[1]; upd.IdentityConfidence != 0.9 {
		t.Errorf("identity confidence = %v, want 0.9 after successful retry", upd.IdentityConfidence)
	}
}

func TestOrchestrator_NoRetryOnPermanentError(t *testing.T) {
	permanent := &domain.QueryError{Kind: domain.ErrKindUpstream, Retryable: false, Status: 400}

	store := newMockProviderStore(testProvider(1))
	idVerifier := verify.NewMockIdentityVerifier()
	idVerifier.Queue = []domain.Outcome{domain.ErrorOutcome(permanent)}
	idVerifier.Outcome = domain.FoundIdentity("should-not-be-used", domain.MatchHigh)
	addrVerifier := verify.NewMockAddressVerifier()

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	if _, err := o.Run(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idVerifier.Calls) != 1 {
		t.Fatalf("identity verifier called %d times, want 1", len(idVerifier.Calls))
	}
	if upd := store.updates[1]; upd.IdentityConfidence != 0.0 {
		t.Errorf("identity confidence = %v, want 0.0", upd.IdentityConfidence)
	}
}

func TestOrchestrator_SignalFailureDoesNotSkipOtherSignal(t *testing.T) {
	retryable := &domain.QueryError{Kind: domain.ErrKindTransport, Retryable: true, Cause: errors.New("refused")}

	store := newMockProviderStore(testProvider(1))
	idVerifier := verify.NewMockIdentityVerifier()
	idVerifier.Outcome = domain.ErrorOutcome(retryable)
	addrVerifier := verify.NewMockAddressVerifier()
	addrVerifier.Outcome = domain.FoundAddress("12 Main St, Austin", 30.2, -97.7)

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	report, err := o.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(addrVerifier.Calls) != 1 {
		t.Errorf("address verifier called %d times, want 1", len(addrVerifier.Calls))
	}
	if report.Processed != 1 {
		t.Errorf("processed = %d, want 1: a failed signal must not drop the record", report.Processed)
	}
	upd := store.updates[1]
	if upd.IdentityConfidence != 0.0 || upd.AddressConfidence != 0.9 {
		t.Errorf("confidences = (%v, %v), want (0.0, 0.9)", upd.IdentityConfidence, upd.AddressConfidence)
	}
}

func TestOrchestrator_StoreFailureIsolation(t *testing.T) {
	store := newMockProviderStore(testProvider(1), testProvider(2), testProvider(3))
	store.failIDs[2] = true
	idVerifier := verify.NewMockIdentityVerifier()
	addrVerifier := verify.NewMockAddressVerifier()

	o := newTestOrchestrator(store, idVerifier, addrVerifier)
	report, err := o.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Processed != 2 {
		t.Errorf("processed = %d, want 2", report.Processed)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	for _, id := range []int64{1, 3} {
		if _, ok := store.updates[id]; !ok {
			t.Errorf("record %d was not persisted", id)
		}
	}
	if _, ok := store.updates[2]; ok {
		t.Error("record 2 should not have a recorded update")
	}
}

func TestOrchestrator_FetchFailure(t *testing.T) {
	store := newMockProviderStore()
	store.fetchErr = errors.New("connection lost")

	o := newTestOrchestrator(store, verify.NewMockIdentityVerifier(), verify.NewMockAddressVerifier())
	if _, err := o.Run(context.Background(), 10); err == nil {
		t.Fatal("expected error when the batch cannot be fetched")
	}
}

func TestOrchestrator_CancellationBetweenRecords(t *testing.T) {
	store := newMockProviderStore(testProvider(1), testProvider(2), testProvider(3))
	ctx, cancel := context.WithCancel(context.Background())
	store.onUpdate = func(id int64) {
		if id == 1 {
			cancel()
		}
	}

	o := newTestOrchestrator(store, verify.NewMockIdentityVerifier(), verify.NewMockAddressVerifier())
	report, err := o.Run(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Processed != 1 {
		t.Errorf("processed = %d, want 1", report.Processed)
	}
	if _, ok := store.updates[1]; !ok {
		t.Error("record persisted before cancellation must remain updated")
	}
	for _, id := range []int64{2, 3} {
		if _, ok := store.updates[id]; ok {
			t.Errorf("record %d must not be touched after cancellation", id)
		}
	}
}

func TestOrchestrator_RespectsBatchSize(t *testing.T) {
	store := newMockProviderStore(testProvider(1), testProvider(2), testProvider(3))

	o := newTestOrchestrator(store, verify.NewMockIdentityVerifier(), verify.NewMockAddressVerifier())
	report, err := o.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Fetched != 2 {
		t.Errorf("fetched = %d, want 2", report.Fetched)
	}
	if report.Processed != 2 {
		t.Errorf("processed = %d, want 2", report.Processed)
	}
}

type timestampedIdentity struct {
	inner *verify.MockIdentityVerifier
	times []time.Time
}

func (v *timestampedIdentity) VerifyIdentity(ctx context.Context, first, last string) domain.Outcome {
	v.times = append(v.times, time.Now())
	return v.inner.VerifyIdentity(ctx, first, last)
}

type timestampedAddress struct {
	inner *verify.MockAddressVerifier
	times []time.Time
}

func (v *timestampedAddress) VerifyAddress(ctx context.Context, street, city, state string) domain.Outcome {
	v.times = append(v.times, time.Now())
	return v.inner.VerifyAddress(ctx, street, city, state)
}

func TestOrchestrator_PacesCallsPerAuthority(t *testing.T) {
	const pacing = 50 * time.Millisecond

	store := newMockProviderStore(testProvider(1), testProvider(2))
	idVerifier := &timestampedIdentity{inner: verify.NewMockIdentityVerifier()}
	addrVerifier := &timestampedAddress{inner: verify.NewMockAddressVerifier()}

	o := NewOrchestrator(store, idVerifier, addrVerifier, zap.NewNop())
	o.SetPacing(pacing)

	report, err := o.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed != 2 {
		t.Fatalf("processed = %d, want 2", report.Processed)
	}

	// Timestamps are taken just after each gate opens, so allow a sliver
	// of scheduling skew.
	const slack = time.Millisecond
	for name, times := range map[string][]time.Time{
		"identity": idVerifier.times,
		"address":  addrVerifier.times,
	} {
		if len(times) != 2 {
			t.Fatalf("%s verifier called %d times, want 2", name, len(times))
		}
		if gap := times[1].Sub(times[0]); gap < pacing-slack {
			t.Errorf("%s calls spaced %v apart, want at least %v", name, gap, pacing)
		}
	}
	if report.Duration < pacing {
		t.Errorf("batch took %v, want at least %v with two paced calls per authority", report.Duration, pacing)
	}
}
