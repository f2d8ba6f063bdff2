package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proptax/internal/models"
	"proptax/internal/store"
)

// ValuationRepository manages the per-year normative monetary values of
// land parcels.
type ValuationRepository struct {
	store *store.Store
}

// NewValuationRepository creates a new ValuationRepository.
func NewValuationRepository(s *store.Store) *ValuationRepository {
	return &ValuationRepository{store: s}
}

// Get resolves the valuation for (parcel, year). Returns nil, nil when the
// year has no valuation row.
func (r *ValuationRepository) Get(ctx context.Context, parcelID int64, year int) (*models.NormativeValue, error) {
	var v models.NormativeValue
	err := r.store.QueryRow(ctx, `
		SELECT land_id, year, value
		FROM normative_monetary_values
		WHERE land_id = ? AND year = ?
	`, parcelID, year).Scan(&v.ParcelID, &v.Year, &v.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation for parcel %d year %d: %w", parcelID, year, err)
	}
	return &v, nil
}

// Upsert inserts the year's valuation row or mutates it in place; there is
// never more than one row per (parcel, year).
func (r *ValuationRepository) Upsert(ctx context.Context, parcelID int64, year int, value float64) error {
	existing, err := r.Get(ctx, parcelID, year)
	if err != nil {
		return err
	}

	if existing == nil {
		_, err := r.store.Insert(ctx, "normative_monetary_values",
			[]string{"land_id", "year", "value"}, parcelID, year, value)
		return err
	}
	return r.store.Update(ctx, "normative_monetary_values",
		[]string{"land_id", "year"}, []any{parcelID, year},
		[]string{"value"}, []any{value})
}

// CopyForward carries fromYear's valuations over to toYear for every parcel
// that does not already have a toYear row, and returns how many rows were
// created. Existing toYear valuations are left untouched.
func (r *ValuationRepository) CopyForward(ctx context.Context, fromYear, toYear int) (int, error) {
	query := `
		INSERT INTO normative_monetary_values (land_id, year, value)
		SELECT src.land_id, ?, src.value
		FROM normative_monetary_values AS src
		WHERE src.year = ?
			AND src.land_id NOT IN (
				SELECT land_id FROM normative_monetary_values WHERE year = ?
			)
	`

	res, err := r.store.Exec(ctx, query, toYear, fromYear, toYear)
	if err != nil {
		return 0, err
	}

	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count copied valuations: %w", err)
	}
	return int(copied), nil
}
