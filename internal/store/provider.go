package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rostervet/internal/domain"
)

const providerColumns = `id, full_name, phone, email, address, city, state, specialty,
	license_number, npi_number, identity_confidence, address_confidence,
	validation_status, created_at`

type ProviderStore struct {
	db *pgxpool.Pool
}

func NewProviderStore(db *pgxpool.Pool) *ProviderStore {
	return &ProviderStore{db: db}
}

func scanProvider(row pgx.Row) (*domain.Provider, error) {
	p := &domain.Provider{}
	err := row.Scan(
		&p.ID, &p.FullName, &p.Phone, &p.Email, &p.Address, &p.City, &p.State,
		&p.Specialty, &p.LicenseNumber, &p.NPINumber, &p.IdentityConfidence,
		&p.AddressConfidence, &p.ValidationStatus, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FetchPending returns up to limit records awaiting validation, oldest first.
func (s *ProviderStore) FetchPending(ctx context.Context, limit int) ([]domain.Provider, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+providerColumns+`
		 FROM providers
		 WHERE validation_status = $1
		 ORDER BY id
		 LIMIT $2`,
		domain.StatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

// UpdateValidation writes the derived validation state for one record in a
// single statement, so readers never observe one confidence without the other.
func (s *ProviderStore) UpdateValidation(ctx context.Context, id int64, upd domain.ValidationUpdate) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE providers
		 SET identity_confidence = $2,
		     address_confidence = $3,
		     validation_status = $4,
		     npi_number = $5
		 WHERE id = $1`,
		id, upd.IdentityConfidence, upd.AddressConfidence, upd.Status, upd.NPINumber,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProviderStore) GetByID(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := scanProvider(s.db.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns providers matching the optional status and specialty filters.
func (s *ProviderStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE 1=1`
	args := []any{}

	if opts.Status != nil {
		args = append(args, *opts.Status)
		query += fmt.Sprintf(" AND validation_status = $%d", len(args))
	}
	if opts.Specialty != "" {
		args = append(args, opts.Specialty)
		query += fmt.Sprintf(" AND specialty = $%d", len(args))
	}

	query += " ORDER BY id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

// Summary aggregates per-status counts and mean confidences over all records.
func (s *ProviderStore) Summary(ctx context.Context) (*domain.ValidationSummary, error) {
	sum := &domain.ValidationSummary{}
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE validation_status = 'pending'),
		        COUNT(*) FILTER (WHERE validation_status = 'review'),
		        COUNT(*) FILTER (WHERE validation_status = 'validated'),
		        COALESCE(AVG(identity_confidence), 0),
		        COALESCE(AVG(address_confidence), 0)
		 FROM providers`,
	).Scan(&sum.Total, &sum.Pending, &sum.Review, &sum.Validated,
		&sum.AvgIdentityConfidence, &sum.AvgAddressConfidence)
	if err != nil {
		return nil, err
	}
	return sum, nil
}
