package verify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"rostervet/internal/domain"
)

const (
	defaultRegistryURL = "https://npiregistry.cms.hhs.gov/api/"
	registryVersion    = "2.1"
)

// IdentityClient looks up providers in the NPI registry by name. It requests
// at most one match and keeps no state between calls.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewIdentityClient(baseURL string, timeout time.Duration, logger *zap.Logger) *IdentityClient {
	if baseURL == "" {
		baseURL = defaultRegistryURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &IdentityClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type registryResponse struct {
	Results []struct {
		Number json.Number `json:"number"`
		Basic  struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"basic"`
	} `json:"results"`
}

// VerifyIdentity issues a single registry lookup for (first, last). Both
// tokens must be non-empty; callers that cannot derive two name tokens skip
// the call entirely.
func (c *IdentityClient) VerifyIdentity(ctx context.Context, first, last string) domain.Outcome {
	params := url.Values{}
	params.Set("version", registryVersion)
	params.Set("first_name", first)
	params.Set("last_name", last)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ErrorOutcome(requestError(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("identity registry request failed", zap.Error(err))
		return domain.ErrorOutcome(transportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("identity registry read failed", zap.Error(err))
		return domain.ErrorOutcome(transportError(err))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("identity registry rejected request", zap.Int("status", resp.StatusCode))
		return domain.ErrorOutcome(statusError(resp.StatusCode))
	}

	var result registryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Warn("identity registry payload undecodable", zap.Error(err))
		return domain.ErrorOutcome(malformedError(err))
	}

	if len(result.Results) == 0 {
		return domain.NotFound()
	}

	match := result.Results[0]
	quality := matchQuality(first, last, match.Basic.FirstName, match.Basic.LastName)
	return domain.FoundIdentity(match.Number.String(), quality)
}

// matchQuality is high only when both query tokens appear, case-insensitively,
// in the registry's returned name.
func matchQuality(first, last, registryFirst, registryLast string) domain.MatchQuality {
	registryName := strings.ToLower(registryFirst + " " + registryLast)
	if strings.Contains(registryName, strings.ToLower(first)) &&
		strings.Contains(registryName, strings.ToLower(last)) {
		return domain.MatchHigh
	}
	return domain.MatchLow
}
