package domain

import "fmt"

type MatchQuality string

const (
	MatchHigh MatchQuality = "high"
	MatchLow  MatchQuality = "low"
)

type OutcomeKind string

const (
	OutcomeFound    OutcomeKind = "found"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeError    OutcomeKind = "error"
)

// Outcome is the normalized result of one verification call. It is produced
// fresh per call and consumed by the scorer; it is never persisted.
type Outcome struct {
	Kind    OutcomeKind
	Quality MatchQuality

	// Identity authority fields.
	AuthorityID string

	// Address authority fields.
	DisplayName string
	Latitude    float64
	Longitude   float64

	// Set only when Kind is OutcomeError.
	Err *QueryError
}

func FoundIdentity(authorityID string, quality MatchQuality) Outcome {
	return Outcome{Kind: OutcomeFound, Quality: quality, AuthorityID: authorityID}
}

// FoundAddress carries quality high unconditionally: the geocoder ranks
// candidates itself and returns only its top match.
func FoundAddress(displayName string, lat, lon float64) Outcome {
	return Outcome{Kind: OutcomeFound, Quality: MatchHigh, DisplayName: displayName, Latitude: lat, Longitude: lon}
}

func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

func ErrorOutcome(err *QueryError) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

type QueryErrorKind string

const (
	// ErrKindTransport covers network failures and timeouts.
	ErrKindTransport QueryErrorKind = "transport"
	// ErrKindUpstream covers non-2xx responses from the authority.
	ErrKindUpstream QueryErrorKind = "upstream_rejected"
	// ErrKindMalformed covers payloads that cannot be decoded.
	ErrKindMalformed QueryErrorKind = "malformed_response"
)

// QueryError describes a failed verification call. Retryable errors (network,
// timeout, 5xx, rate limit) may be retried once by the orchestrator; all
// others are scored immediately.
type QueryError struct {
	Kind      QueryErrorKind
	Retryable bool
	Status    int
	Cause     error
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	return string(e.Kind)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}
