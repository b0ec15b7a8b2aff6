package domain

import "context"

// ValidationUpdate is the derived state written back for one record. All
// fields are applied in a single atomic store call.
type ValidationUpdate struct {
	IdentityConfidence float64
	AddressConfidence  float64
	Status             ValidationStatus
	NPINumber          *string
}

type ListOpts struct {
	Status    *ValidationStatus
	Specialty string
	Limit     int
	Offset    int
}

type ValidationSummary struct {
	Total                 int     `json:"total"`
	Pending               int     `json:"pending"`
	Review                int     `json:"review"`
	Validated             int     `json:"validated"`
	AvgIdentityConfidence float64 `json:"avg_identity_confidence"`
	AvgAddressConfidence  float64 `json:"avg_address_confidence"`
}

type ProviderStore interface {
	FetchPending(ctx context.Context, limit int) ([]Provider, error)
	UpdateValidation(ctx context.Context, id int64, upd ValidationUpdate) error
	GetByID(ctx context.Context, id int64) (*Provider, error)
	List(ctx context.Context, opts ListOpts) ([]Provider, error)
	Summary(ctx context.Context) (*ValidationSummary, error)
}

// IdentityVerifier resolves name tokens against the identity registry.
// Failures are normalized into the outcome, never returned as errors.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, first, last string) Outcome
}

// AddressVerifier resolves a street address against the geocoding authority.
type AddressVerifier interface {
	VerifyAddress(ctx context.Context, street, city, state string) Outcome
}
