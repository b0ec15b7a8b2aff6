package domain

import (
	"strings"
	"time"
)

type ValidationStatus string

const (
	StatusPending   ValidationStatus = "pending"
	StatusReview    ValidationStatus = "review"
	StatusValidated ValidationStatus = "validated"
)

func ValidStatus(s string) bool {
	switch ValidationStatus(s) {
	case StatusPending, StatusReview, StatusValidated:
		return true
	}
	return false
}

// Provider is one roster record. The seed data owns the descriptive fields;
// the validation pipeline owns npi_number, the two confidences and the status,
// which are always written together in a single update.
type Provider struct {
	ID                 int64            `json:"id"`
	FullName           string           `json:"full_name"`
	Phone              string           `json:"phone,omitempty"`
	Email              string           `json:"email,omitempty"`
	Address            string           `json:"address"`
	City               string           `json:"city"`
	State              string           `json:"state"`
	Specialty          string           `json:"specialty,omitempty"`
	LicenseNumber      string           `json:"license_number,omitempty"`
	NPINumber          *string          `json:"npi_number,omitempty"`
	IdentityConfidence *float64         `json:"identity_confidence,omitempty"`
	AddressConfidence  *float64         `json:"address_confidence,omitempty"`
	ValidationStatus   ValidationStatus `json:"validation_status"`
	CreatedAt          time.Time        `json:"created_at"`
}

// NameTokens splits the full name on whitespace: the first token is the given
// name, the second (minus any trailing comma) the family name. Suffixes like
// "MD" after the comma are ignored. ok is false when fewer than two tokens
// exist, in which case identity verification must be skipped.
func (p *Provider) NameTokens() (first, last string, ok bool) {
	tokens := strings.Fields(p.FullName)
	if len(tokens) < 2 {
		return "", "", false
	}
	return tokens[0], strings.TrimSuffix(tokens[1], ","), true
}

// HasFullAddress reports whether the record carries all three address fields
// required for a geocoding lookup.
func (p *Provider) HasFullAddress() bool {
	return p.Address != "" && p.City != "" && p.State != ""
}
