package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rostervet/internal/domain"
)

const (
	defaultGeocoderURL = "https://nominatim.openstreetmap.org/search"
	defaultCountry     = "USA"

	// The geocoder requires an identifying User-Agent on every request;
	// omitting it gets the client blocked, so it is fixed here rather than
	// configurable.
	geocoderUserAgent = "rostervet/1.0 (provider roster validation)"
)

// AddressClient geocodes free-text addresses through Nominatim, requesting
// only the top-ranked candidate.
type AddressClient struct {
	baseURL    string
	country    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewAddressClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AddressClient {
	if baseURL == "" {
		baseURL = defaultGeocoderURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AddressClient{
		baseURL:    baseURL,
		country:    defaultCountry,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type geocoderResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// VerifyAddress issues a single geocoding lookup for "street, city, state,
// country". All three address parts must be non-empty; callers with missing
// parts skip the call and treat the record as not found.
func (c *AddressClient) VerifyAddress(ctx context.Context, street, city, state string) domain.Outcome {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s, %s, %s, %s", street, city, state, c.country))
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ErrorOutcome(requestError(err))
	}
	req.Header.Set("User-Agent", geocoderUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("geocoder request failed", zap.Error(err))
		return domain.ErrorOutcome(transportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("geocoder read failed", zap.Error(err))
		return domain.ErrorOutcome(transportError(err))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("geocoder rejected request", zap.Int("status", resp.StatusCode))
		return domain.ErrorOutcome(statusError(resp.StatusCode))
	}

	var results []geocoderResult
	if err := json.Unmarshal(body, &results); err != nil {
		c.logger.Warn("geocoder payload undecodable", zap.Error(err))
		return domain.ErrorOutcome(malformedError(err))
	}

	if len(results) == 0 {
		return domain.NotFound()
	}

	top := results[0]
	lat, err := strconv.ParseFloat(top.Lat, 64)
	if err != nil {
		return domain.ErrorOutcome(malformedError(fmt.Errorf("parse latitude %q: %w", top.Lat, err)))
	}
	lon, err := strconv.ParseFloat(top.Lon, 64)
	if err != nil {
		return domain.ErrorOutcome(malformedError(fmt.Errorf("parse longitude %q: %w", top.Lon, err)))
	}

	return domain.FoundAddress(top.DisplayName, lat, lon)
}
