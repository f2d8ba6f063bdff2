package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proptax/internal/models"
	"proptax/internal/store"
)

// SalaryRepository manages the per-year statutory minimum salary, the
// single source for the real-estate tax base.
type SalaryRepository struct {
	store *store.Store
}

// NewSalaryRepository creates a new SalaryRepository.
func NewSalaryRepository(s *store.Store) *SalaryRepository {
	return &SalaryRepository{store: s}
}

// Get resolves the minimum salary for a year. Returns nil, nil when the
// year has no entry.
func (r *SalaryRepository) Get(ctx context.Context, year int) (*models.MinimumSalary, error) {
	var m models.MinimumSalary
	err := r.store.QueryRow(ctx,
		"SELECT year, min_salary FROM general_info WHERE year = ?", year).Scan(&m.Year, &m.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query minimum salary for year %d: %w", year, err)
	}
	return &m, nil
}

// Set inserts or updates the minimum salary for a year.
func (r *SalaryRepository) Set(ctx context.Context, year int, amount float64) error {
	existing, err := r.Get(ctx, year)
	if err != nil {
		return err
	}

	if existing == nil {
		_, err := r.store.Insert(ctx, "general_info", []string{"year", "min_salary"}, year, amount)
		return err
	}
	return r.store.Update(ctx, "general_info",
		[]string{"year"}, []any{year},
		[]string{"min_salary"}, []any{amount})
}
