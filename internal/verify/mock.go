package verify

import (
	"context"

	"rostervet/internal/domain"
)

// MockIdentityVerifier is a configurable identity verifier for testing. Set
// Outcome for a fixed response, or push onto Queue for per-call responses.
type MockIdentityVerifier struct {
	Outcome domain.Outcome
	Queue   []domain.Outcome

	// Call tracking for assertions
	Calls []struct{ First, Last string }
}

func NewMockIdentityVerifier() *MockIdentityVerifier {
	return &MockIdentityVerifier{
		Outcome: domain.FoundIdentity("1234567890", domain.MatchHigh),
	}
}

func (m *MockIdentityVerifier) VerifyIdentity(ctx context.Context, first, last string) domain.Outcome {
	m.Calls = append(m.Calls, struct{ First, Last string }{first, last})
	if len(m.Queue) > 0 {
		out := m.Queue[0]
		m.Queue = m.Queue[1:]
		return out
	}
	return m.Outcome
}

// MockAddressVerifier is a configurable address verifier for testing.
type MockAddressVerifier struct {
	Outcome domain.Outcome
	Queue   []domain.Outcome

	Calls []struct{ Street, City, State string }
}

func NewMockAddressVerifier() *MockAddressVerifier {
	return &MockAddressVerifier{
		Outcome: domain.FoundAddress("12 Main St, Austin, TX, USA", 30.2672, -97.7431),
	}
}

func (m *MockAddressVerifier) VerifyAddress(ctx context.Context, street, city, state string) domain.Outcome {
	m.Calls = append(m.Calls, struct{ Street, City, State string }{street, city, state})
	if len(m.Queue) > 0 {
		out := m.Queue[0]
		m.Queue = m.Queue[1:]
		return out
	}
	return m.Outcome
}
