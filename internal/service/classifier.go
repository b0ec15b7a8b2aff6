package service

import "rostervet/internal/domain"

// Baseline weights and thresholds. Tune here, not at call sites.
const (
	DefaultIdentityWeight     = 0.7
	DefaultAddressWeight      = 0.3
	DefaultReviewThreshold    = 0.5
	DefaultValidatedThreshold = 0.8
)

// ScoringConfig holds the signal weights and status thresholds used to fold
// per-signal confidences into one validation status. Weights should sum to 1.
type ScoringConfig struct {
	IdentityWeight     float64
	AddressWeight      float64
	ReviewThreshold    float64
	ValidatedThreshold float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		IdentityWeight:     DefaultIdentityWeight,
		AddressWeight:      DefaultAddressWeight,
		ReviewThreshold:    DefaultReviewThreshold,
		ValidatedThreshold: DefaultValidatedThreshold,
	}
}

// Classify computes the weighted aggregate of the two confidences and maps it
// onto a status. Both thresholds are inclusive lower bounds: an aggregate of
// exactly ValidatedThreshold is validated, exactly ReviewThreshold is review.
func (c ScoringConfig) Classify(identityConfidence, addressConfidence float64) (aggregate float64, status domain.ValidationStatus) {
	aggregate = c.IdentityWeight*identityConfidence + c.AddressWeight*addressConfidence

	switch {
	case aggregate >= c.ValidatedThreshold:
		status = domain.StatusValidated
	case aggregate >= c.ReviewThreshold:
		status = domain.StatusReview
	default:
		status = domain.StatusPending
	}
	return aggregate, status
}
