package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"proptax/internal/models"
	"proptax/internal/store"
	"proptax/internal/tax"
)

// RealEstateInput carries the caller-supplied fields of a real-estate unit
// together with the paid flag for the year being edited.
type RealEstateInput struct {
	OwnerID  int64
	TypeName string
	Name     string
	Address  string
	Area     float64
	Paid     bool
	Notes    string
}

// RealEstateRepository owns real-estate records and their per-year tax
// rows. The tax base is the year's minimum salary rather than a per-unit
// valuation, so the repository depends on the salary repository.
type RealEstateRepository struct {
	store    *store.Store
	types    *EstateTypeRepository
	salaries *SalaryRepository
}

// NewRealEstateRepository creates a new RealEstateRepository.
func NewRealEstateRepository(s *store.Store, types *EstateTypeRepository, salaries *SalaryRepository) *RealEstateRepository {
	return &RealEstateRepository{
		store:    s,
		types:    types,
		salaries: salaries,
	}
}

// Get returns the unit with the given id, or ErrNotFound.
func (r *RealEstateRepository) Get(ctx context.Context, id int64) (*models.RealEstate, error) {
	var e models.RealEstate
	err := r.store.QueryRow(ctx, `
		SELECT id, user_id, real_estate_type_id, name, address, area, notes
		FROM real_estate
		WHERE id = ?
	`, id).Scan(&e.ID, &e.OwnerID, &e.TypeID, &e.Name, &e.Address, &e.Area, &e.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query real estate %d: %w", id, err)
	}
	return &e, nil
}

// AllIDs enumerates every unit id, for batch recalculation.
func (r *RealEstateRepository) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.store.Query(ctx, "SELECT id FROM real_estate ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan real estate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating real estate ids: %w", err)
	}
	return ids, nil
}

// ListByYear returns the denormalized per-year listing: every unit joined
// with its owner, type, and the year's rate and tax rows.
func (r *RealEstateRepository) ListByYear(ctx context.Context, year int) ([]models.RealEstateYearRow, error) {
	query := `
		SELECT
			real_estate.id,
			users.id,
			users.last_name || ' ' || users.first_name || ' ' || users.middle_name,
			real_estate_type.name,
			real_estate_type_rates.tax_rate,
			real_estate_type_rates.tax_area_limit,
			real_estate.name,
			real_estate.address,
			real_estate.area,
			real_estate_taxes.tax,
			real_estate_taxes.paid,
			real_estate.notes
		FROM real_estate
		INNER JOIN real_estate_type
			ON real_estate.real_estate_type_id = real_estate_type.id
		INNER JOIN users
			ON real_estate.user_id = users.id
		LEFT JOIN real_estate_taxes
			ON real_estate_taxes.real_estate_id = real_estate.id
			AND real_estate_taxes.tax_year = ?
		LEFT JOIN real_estate_type_rates
			ON real_estate_type_rates.real_estate_type_id = real_estate.real_estate_type_id
			AND real_estate_type_rates.tax_year = ?
		ORDER BY real_estate.id
	`

	rows, err := r.store.Query(ctx, query, year, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RealEstateYearRow{}
	for rows.Next() {
		var row models.RealEstateYearRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.OwnerName, &row.TypeName,
			&row.RatePercent, &row.AreaLimit, &row.Name, &row.Address, &row.Area,
			&row.Tax, &row.Paid, &row.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan real estate year row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating real estate year rows: %w", err)
	}
	return result, nil
}

// Add registers a unit and creates the year's tax row. The type name must
// resolve to an existing taxonomy entry.
func (r *RealEstateRepository) Add(ctx context.Context, year int, in RealEstateInput) (int64, error) {
	typeRecord, err := r.types.TypeByName(ctx, in.TypeName)
	if err != nil {
		return 0, err
	}
	if typeRecord == nil {
		return 0, ErrTypeNotFound
	}

	id, err := r.store.Insert(ctx, "real_estate",
		[]string{"user_id", "real_estate_type_id", "name", "address", "area", "notes"},
		in.OwnerID, typeRecord.ID, in.Name, in.Address, in.Area, in.Notes)
	if err != nil {
		return 0, err
	}

	amount, err := r.computeTax(ctx, year, in.Area, typeRecord.ID)
	if err != nil {
		return 0, err
	}

	_, err = r.store.Insert(ctx, "real_estate_taxes",
		[]string{"real_estate_id", "tax_year", "tax", "paid"},
		id, year, amount, tax.Paid(in.Paid, amount))
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites the unit's fields and upserts the year's tax row. Both
// the tax amount and the paid flag are rewritten here; compare UpdateTax.
func (r *RealEstateRepository) Update(ctx context.Context, id int64, year int, in RealEstateInput) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	typeRecord, err := r.types.TypeByName(ctx, in.TypeName)
	if err != nil {
		return err
	}
	if typeRecord == nil {
		return ErrTypeNotFound
	}

	if err := r.store.Update(ctx, "real_estate",
		[]string{"id"}, []any{id},
		[]string{"user_id", "real_estate_type_id", "name", "address", "area", "notes"},
		[]any{in.OwnerID, typeRecord.ID, in.Name, in.Address, in.Area, in.Notes}); err != nil {
		return err
	}

	amount, err := r.computeTax(ctx, year, in.Area, typeRecord.ID)
	if err != nil {
		return err
	}

	return r.upsertTaxRow(ctx, id, year, amount, tax.Paid(in.Paid, amount), true)
}

// UpdateTax is the recompute-only path used by the cascade: it re-reads the
// unit and the year's rate/wage inputs, recomputes the tax, and upserts the
// tax row. A newly created row starts unpaid; an existing row keeps its
// paid flag untouched.
func (r *RealEstateRepository) UpdateTax(ctx context.Context, id int64, year int) error {
	unit, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	amount, err := r.computeTax(ctx, year, unit.Area, unit.TypeID)
	if err != nil {
		return err
	}

	return r.upsertTaxRow(ctx, id, year, amount, false, false)
}

// RecalculateAll re-derives the tax of every unit for the year, collecting
// distinct per-row failures into one RecalcError after the full pass.
func (r *RealEstateRepository) RecalculateAll(ctx context.Context, year int) error {
	ids, err := r.AllIDs(ctx)
	if err != nil {
		return err
	}

	failed := 0
	causes := map[string]struct{}{}
	for _, id := range ids {
		if err := r.UpdateTax(ctx, id, year); err != nil {
			causes[err.Error()] = struct{}{}
			failed++
		}
	}

	if failed == 0 {
		return nil
	}

	messages := make([]string, 0, len(causes))
	for msg := range causes {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return &RecalcError{Failed: failed, Messages: messages}
}

// Delete removes the unit; its per-year tax rows are removed by the
// schema's ON DELETE CASCADE.
func (r *RealEstateRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, "real_estate", []string{"id"}, id)
}

// computeTax derives the unit's tax for the year from the type's rate row
// and the year's minimum salary. Both inputs are mandatory; their absence
// is an error, never a zero tax.
func (r *RealEstateRepository) computeTax(ctx context.Context, year int, area float64, typeID int64) (float64, error) {
	rate, err := r.types.RateFor(ctx, year, typeID)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return 0, tax.ErrMissingRate
	}

	salary, err := r.salaries.Get(ctx, year)
	if err != nil {
		return 0, err
	}
	if salary == nil {
		return 0, tax.ErrMissingWage
	}

	return tax.RealEstate(salary.Amount, rate.RatePercent, area, rate.AreaLimit), nil
}

// upsertTaxRow creates or mutates the single (unit, year) tax row.
func (r *RealEstateRepository) upsertTaxRow(ctx context.Context, id int64, year int, amount float64, paid, overwritePaid bool) error {
	exists, err := r.store.Exists(ctx, "real_estate_taxes",
		[]string{"real_estate_id", "tax_year"}, id, year)
	if err != nil {
		return err
	}

	if !exists {
		_, err := r.store.Insert(ctx, "real_estate_taxes",
			[]string{"real_estate_id", "tax_year", "tax", "paid"},
			id, year, amount, paid)
		return err
	}

	if overwritePaid {
		return r.store.Update(ctx, "real_estate_taxes",
			[]string{"real_estate_id", "tax_year"}, []any{id, year},
			[]string{"tax", "paid"}, []any{amount, paid})
	}
	return r.store.Update(ctx, "real_estate_taxes",
		[]string{"real_estate_id", "tax_year"}, []any{id, year},
		[]string{"tax"}, []any{amount})
}
