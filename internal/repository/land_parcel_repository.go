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

// LandParcelInput carries the caller-supplied fields of a parcel together
// with the per-year valuation and paid flag for the year being edited.
type LandParcelInput struct {
	OwnerID        int64
	TypeName       string
	Address        string
	Area           float64
	Privileged     bool
	NormativeValue float64
	Paid           bool
	Notes          string
}

// LandParcelRepository owns land-parcel records and their per-year
// valuation and tax rows. Tax computation is delegated to the tax package;
// the repository persists the result.
type LandParcelRepository struct {
	store      *store.Store
	types      *LandTypeRepository
	valuations *ValuationRepository
}

// NewLandParcelRepository creates a new LandParcelRepository. The taxonomy
// and valuation repositories are injected already built; the repository
// never constructs its collaborators.
func NewLandParcelRepository(s *store.Store, types *LandTypeRepository, valuations *ValuationRepository) *LandParcelRepository {
	return &LandParcelRepository{
		store:      s,
		types:      types,
		valuations: valuations,
	}
}

// Get returns the parcel with the given id, or ErrNotFound.
func (r *LandParcelRepository) Get(ctx context.Context, id int64) (*models.LandParcel, error) {
	var p models.LandParcel
	err := r.store.QueryRow(ctx, `
		SELECT id, user_id, land_parcel_type_id, address, area, privileged, notes
		FROM land_parcel
		WHERE id = ?
	`, id).Scan(&p.ID, &p.OwnerID, &p.TypeID, &p.Address, &p.Area, &p.Privileged, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query land parcel %d: %w", id, err)
	}
	return &p, nil
}

// AllIDs enumerates every parcel id, for batch recalculation.
func (r *LandParcelRepository) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.store.Query(ctx, "SELECT id FROM land_parcel ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan land parcel id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land parcel ids: %w", err)
	}
	return ids, nil
}

// ListByYear returns the denormalized per-year listing: every parcel joined
// with its owner, type, and the year's rate, valuation and tax rows.
// Parcels without a valuation, tax or rate row for the year come back with
// nil fields rather than being dropped.
func (r *LandParcelRepository) ListByYear(ctx context.Context, year int) ([]models.LandParcelYearRow, error) {
	query := `
		SELECT
			land_parcel.id,
			users.id,
			users.last_name || ' ' || users.first_name || ' ' || users.middle_name,
			land_parcel_type.name,
			land_parcel_type_rates.tax_rate,
			land_parcel.address,
			land_parcel.area,
			land_parcel.privileged,
			normative_monetary_values.value,
			land_parcel_taxes.tax,
			land_parcel_taxes.paid,
			land_parcel.notes
		FROM land_parcel
		INNER JOIN land_parcel_type
			ON land_parcel.land_parcel_type_id = land_parcel_type.id
		INNER JOIN users
			ON land_parcel.user_id = users.id
		LEFT JOIN normative_monetary_values
			ON normative_monetary_values.land_id = land_parcel.id
			AND normative_monetary_values.year = ?
		LEFT JOIN land_parcel_taxes
			ON land_parcel_taxes.land_parcel_id = land_parcel.id
			AND land_parcel_taxes.tax_year = ?
		LEFT JOIN land_parcel_type_rates
			ON land_parcel_type_rates.land_parcel_type_id = land_parcel.land_parcel_type_id
			AND land_parcel_type_rates.tax_year = ?
		ORDER BY land_parcel.id
	`

	rows, err := r.store.Query(ctx, query, year, year, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.LandParcelYearRow{}
	for rows.Next() {
		var row models.LandParcelYearRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.OwnerName, &row.TypeName,
			&row.RatePercent, &row.Address, &row.Area, &row.Privileged,
			&row.NormativeValue, &row.Tax, &row.Paid, &row.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan land parcel year row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land parcel year rows: %w", err)
	}
	return result, nil
}

// Add registers a parcel and creates the year's valuation and tax rows.
// The type name must resolve to an existing taxonomy entry.
func (r *LandParcelRepository) Add(ctx context.Context, year int, in LandParcelInput) (int64, error) {
	typeRecord, err := r.types.TypeByName(ctx, in.TypeName)
	if err != nil {
		return 0, err
	}
	if typeRecord == nil {
		return 0, ErrTypeNotFound
	}

	id, err := r.store.Insert(ctx, "land_parcel",
		[]string{"user_id", "land_parcel_type_id", "address", "area", "privileged", "notes"},
		in.OwnerID, typeRecord.ID, in.Address, in.Area, in.Privileged, in.Notes)
	if err != nil {
		return 0, err
	}

	if err := r.valuations.Upsert(ctx, id, year, in.NormativeValue); err != nil {
		return 0, err
	}

	amount, err := r.computeTax(ctx, year, in.Area, typeRecord.ID, in.Privileged, in.NormativeValue)
	if err != nil {
		return 0, err
	}

	_, err = r.store.Insert(ctx, "land_parcel_taxes",
		[]string{"land_parcel_id", "tax_year", "tax", "paid"},
		id, year, amount, tax.Paid(in.Paid, amount))
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites the parcel's fields and upserts the year's valuation and
// tax rows. Both the tax amount and the paid flag are rewritten here;
// compare UpdateTax, which preserves the paid flag.
func (r *LandParcelRepository) Update(ctx context.Context, id int64, year int, in LandParcelInput) error {
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

	if err := r.store.Update(ctx, "land_parcel",
		[]string{"id"}, []any{id},
		[]string{"user_id", "land_parcel_type_id", "address", "area", "privileged", "notes"},
		[]any{in.OwnerID, typeRecord.ID, in.Address, in.Area, in.Privileged, in.Notes}); err != nil {
		return err
	}

	if err := r.valuations.Upsert(ctx, id, year, in.NormativeValue); err != nil {
		return err
	}

	amount, err := r.computeTax(ctx, year, in.Area, typeRecord.ID, in.Privileged, in.NormativeValue)
	if err != nil {
		return err
	}

	return r.upsertTaxRow(ctx, id, year, amount, tax.Paid(in.Paid, amount), true)
}

// UpdateTax is the recompute-only path used by the cascade: it re-reads the
// parcel and the year's valuation, recomputes the tax, and upserts the tax
// row. A newly created row starts unpaid; an existing row keeps its paid
// flag untouched.
func (r *LandParcelRepository) UpdateTax(ctx context.Context, id int64, year int) error {
	parcel, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	valuation, err := r.valuations.Get(ctx, id, year)
	if err != nil {
		return err
	}
	if valuation == nil {
		return tax.ErrMissingValuation
	}

	amount, err := r.computeTax(ctx, year, parcel.Area, parcel.TypeID, parcel.Privileged, valuation.Value)
	if err != nil {
		return err
	}

	return r.upsertTaxRow(ctx, id, year, amount, false, false)
}

// RecalculateAll re-derives the tax of every parcel for the year. Per-row
// failures are collected, deduplicated by message, and reported once as a
// RecalcError after the full pass; the batch never aborts partway.
func (r *LandParcelRepository) RecalculateAll(ctx context.Context, year int) error {
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

// Delete removes the parcel; its per-year valuation and tax rows are
// removed by the schema's ON DELETE CASCADE.
func (r *LandParcelRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, "land_parcel", []string{"id"}, id)
}

// computeTax derives the parcel's tax for the year. The rate lookup is only
// consulted for non-privileged parcels; a privileged parcel is taxed at
// zero even when its type has no rate for the year.
func (r *LandParcelRepository) computeTax(ctx context.Context, year int, area float64, typeID int64, privileged bool, normativeValue float64) (float64, error) {
	if privileged {
		return 0, nil
	}

	rate, err := r.types.RateFor(ctx, year, typeID)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return 0, tax.ErrMissingRate
	}

	return tax.Land(normativeValue, rate.RatePercent, area, privileged), nil
}

// upsertTaxRow creates or mutates the single (parcel, year) tax row.
// overwritePaid selects between the edit path (paid rewritten) and the
// recalculation path (paid preserved on existing rows).
func (r *LandParcelRepository) upsertTaxRow(ctx context.Context, id int64, year int, amount float64, paid, overwritePaid bool) error {
	exists, err := r.store.Exists(ctx, "land_parcel_taxes",
		[]string{"land_parcel_id", "tax_year"}, id, year)
	if err != nil {
		return err
	}

	if !exists {
		_, err := r.store.Insert(ctx, "land_parcel_taxes",
			[]string{"land_parcel_id", "tax_year", "tax", "paid"},
			id, year, amount, paid)
		return err
	}

	if overwritePaid {
		return r.store.Update(ctx, "land_parcel_taxes",
			[]string{"land_parcel_id", "tax_year"}, []any{id, year},
			[]string{"tax", "paid"}, []any{amount, paid})
	}
	return r.store.Update(ctx, "land_parcel_taxes",
		[]string{"land_parcel_id", "tax_year"}, []any{id, year},
		[]string{"tax"}, []any{amount})
}
