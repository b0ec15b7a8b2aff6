// Package verify holds the clients for the two external verification
// authorities: the NPI identity registry and the Nominatim geocoder. Each
// client issues one bounded outbound call and normalizes the response into a
// domain.Outcome; transport failures, upstream rejections and undecodable
// payloads become OutcomeError, never Go errors at the call site.
package verify

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rostervet/internal/domain"
)

// Verifier provider constants
const (
	ProviderLive = "live"
	ProviderMock = "mock"
)

const defaultTimeout = 10 * time.Second

// NewIdentityVerifier creates an identity verifier for the given provider
// name. baseURL overrides the registry endpoint when non-empty.
func NewIdentityVerifier(provider, baseURL string, timeout time.Duration, logger *zap.Logger) (domain.IdentityVerifier, error) {
	switch provider {
	case ProviderLive:
		return NewIdentityClient(baseURL, timeout, logger), nil
	case ProviderMock:
		return NewMockIdentityVerifier(), nil
	default:
		return nil, fmt.Errorf("unknown verifier provider: %s (valid options: live, mock)", provider)
	}
}

// NewAddressVerifier creates an address verifier for the given provider name.
func NewAddressVerifier(provider, baseURL string, timeout time.Duration, logger *zap.Logger) (domain.AddressVerifier, error) {
	switch provider {
	case ProviderLive:
		return NewAddressClient(baseURL, timeout, logger), nil
	case ProviderMock:
		return NewMockAddressVerifier(), nil
	default:
		return nil, fmt.Errorf("unknown verifier provider: %s (valid options: live, mock)", provider)
	}
}

// statusError classifies a non-2xx authority response. Rate-limit responses
// and server errors are retryable; other client errors are not.
func statusError(status int) *domain.QueryError {
	return &domain.QueryError{
		Kind:      domain.ErrKindUpstream,
		Retryable: status >= http.StatusInternalServerError || status == http.StatusTooManyRequests,
		Status:    status,
	}
}

func transportError(err error) *domain.QueryError {
	return &domain.QueryError{Kind: domain.ErrKindTransport, Retryable: true, Cause: err}
}

// requestError covers failures building the outbound request itself. No call
// ever left the process, so retrying cannot help.
func requestError(err error) *domain.QueryError {
	return &domain.QueryError{Kind: domain.ErrKindTransport, Retryable: false, Cause: err}
}

func malformedError(err error) *domain.QueryError {
	return &domain.QueryError{Kind: domain.ErrKindMalformed, Retryable: false, Cause: err}
}
