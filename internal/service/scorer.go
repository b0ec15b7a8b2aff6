package service

import "rostervet/internal/domain"

// Confidence values assigned per outcome. These are the only place the raw
// numbers live; the classifier only ever sees the scored floats.
const (
	ScoreFoundHigh = 0.9
	ScoreFoundLow  = 0.7
	ScoreNotFound  = 0.0
	// Errors score the same as a non-match: failing to reach an authority
	// is never evidence of validity.
	ScoreError = 0.0
)

// ScoreIdentity converts an identity-registry outcome into a confidence in
// [0,1]. Low-quality matches (registry name does not echo the query tokens)
// score below high-quality ones.
func ScoreIdentity(out domain.Outcome) float64 {
	switch out.Kind {
	case domain.OutcomeFound:
		if out.Quality == domain.MatchHigh {
			return ScoreFoundHigh
		}
		return ScoreFoundLow
	case domain.OutcomeNotFound:
		return ScoreNotFound
	default:
		return ScoreError
	}
}

// ScoreAddress converts a geocoder outcome into a confidence in [0,1]. The
// geocoder has no low-quality variant; any match scores high.
func ScoreAddress(out domain.Outcome) float64 {
	switch out.Kind {
	case domain.OutcomeFound:
		return ScoreFoundHigh
	case domain.OutcomeNotFound:
		return ScoreNotFound
	default:
		return ScoreError
	}
}
