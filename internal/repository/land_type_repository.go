package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proptax/internal/models"
	"proptax/internal/store"
)

// LandTypeRepository manages the land-parcel taxonomy: type names and their
// year-scoped tax-rate rows.
type LandTypeRepository struct {
	store *store.Store
}

// NewLandTypeRepository creates a new LandTypeRepository.
func NewLandTypeRepository(s *store.Store) *LandTypeRepository {
	return &LandTypeRepository{store: s}
}

// GetTypeRates returns every known land type joined against the given
// year's rate row. Types lacking a rate for the year come back with nil
// rate fields.
func (r *LandTypeRepository) GetTypeRates(ctx context.Context, year int) ([]models.TypeRateRow, error) {
	query := `
		SELECT land_parcel_type_rates.id, land_parcel_type.name, land_parcel_type_rates.tax_rate
		FROM land_parcel_type
		LEFT JOIN land_parcel_type_rates
			ON land_parcel_type.id = land_parcel_type_rates.land_parcel_type_id
			AND land_parcel_type_rates.tax_year = ?
		ORDER BY land_parcel_type.name
	`

	rows, err := r.store.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.TypeRateRow{}
	for rows.Next() {
		var row models.TypeRateRow
		if err := rows.Scan(&row.RateID, &row.TypeName, &row.RatePercent); err != nil {
			return nil, fmt.Errorf("failed to scan land type rate row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land type rate rows: %w", err)
	}
	return result, nil
}

// TypeByName resolves a land type by name. Returns nil, nil when absent.
func (r *LandTypeRepository) TypeByName(ctx context.Context, name string) (*models.PropertyType, error) {
	var t models.PropertyType
	err := r.store.QueryRow(ctx,
		"SELECT id, name FROM land_parcel_type WHERE name = ?", name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query land type %q: %w", name, err)
	}
	return &t, nil
}

// RateFor resolves the rate row for (type, year). Returns nil, nil when the
// year has no rate for the type; callers decide whether that is an error.
func (r *LandTypeRepository) RateFor(ctx context.Context, year int, typeID int64) (*models.LandTypeRate, error) {
	var rate models.LandTypeRate
	err := r.store.QueryRow(ctx, `
		SELECT id, land_parcel_type_id, tax_year, tax_rate
		FROM land_parcel_type_rates
		WHERE tax_year = ? AND land_parcel_type_id = ?
	`, year, typeID).Scan(&rate.ID, &rate.TypeID, &rate.Year, &rate.RatePercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query land rate for type %d year %d: %w", typeID, year, err)
	}
	return &rate, nil
}

// AddRate looks up or creates the named type, then inserts a new rate row
// for (type, year). Fails with ErrDuplicateRate when the pair already has
// a rate.
func (r *LandTypeRepository) AddRate(ctx context.Context, year int, typeName string, ratePercent float64) error {
	typeRecord, err := r.TypeByName(ctx, typeName)
	if err != nil {
		return err
	}
	if typeRecord == nil {
		id, err := r.store.Insert(ctx, "land_parcel_type", []string{"name"}, typeName)
		if err != nil {
			return err
		}
		typeRecord = &models.PropertyType{ID: id, Name: typeName}
	}

	existing, err := r.RateFor(ctx, year, typeRecord.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateRate
	}

	_, err = r.store.Insert(ctx, "land_parcel_type_rates",
		[]string{"land_parcel_type_id", "tax_year", "tax_rate"},
		typeRecord.ID, year, ratePercent)
	return err
}

// UpdateRate edits an existing rate row. A rateID of 0 is the "no existing
// row" sentinel and behaves as AddRate. Otherwise the type is resolved
// through the rate row rather than by name, and renamed in place when the given
// name matches no existing type.
func (r *LandTypeRepository) UpdateRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent float64) error {
	if rateID == 0 {
		return r.AddRate(ctx, year, typeName, ratePercent)
	}

	typeID, err := r.typeIDByRateID(ctx, rateID)
	if err != nil {
		return err
	}

	typeRecord, err := r.TypeByName(ctx, typeName)
	if err != nil {
		return err
	}
	if typeRecord == nil {
		// The name matches no type: this is a rename of the type the
		// rate row points at.
		if err := r.store.Update(ctx, "land_parcel_type",
			[]string{"id"}, []any{typeID},
			[]string{"name"}, []any{typeName}); err != nil {
			return err
		}
	}

	return r.store.Update(ctx, "land_parcel_type_rates",
		[]string{"id"}, []any{rateID},
		[]string{"tax_year", "land_parcel_type_id", "tax_rate"},
		[]any{year, typeID, ratePercent})
}

// DeleteRate removes rate information for a type. With a rateID of 0 the
// type is resolved by name and may only be deleted once it has no rate rows
// in any year. With an explicit rateID that year's rate row is deleted
// first, and only then the type is checked: if other-year rates remain or
// any parcel references the type, a ReferentialDeleteError is returned and
// the type survives, but the targeted rate row stays deleted.
func (r *LandTypeRepository) DeleteRate(ctx context.Context, rateID int64, typeName string) error {
	var typeID int64

	if rateID == 0 {
		typeRecord, err := r.TypeByName(ctx, typeName)
		if err != nil {
			return err
		}
		if typeRecord == nil {
			return ErrTypeNotFound
		}
		typeID = typeRecord.ID
	} else {
		var err error
		typeID, err = r.typeIDByRateID(ctx, rateID)
		if err != nil {
			return err
		}
		if err := r.store.Delete(ctx, "land_parcel_type_rates", []string{"id"}, rateID); err != nil {
			return err
		}
	}

	hasRates, err := r.store.Exists(ctx, "land_parcel_type_rates",
		[]string{"land_parcel_type_id"}, typeID)
	if err != nil {
		return err
	}
	if hasRates {
		return &ReferentialDeleteError{
			Reason: "land type still has tax rates for other years; delete them first to remove the type",
		}
	}

	inUse, err := r.store.Exists(ctx, "land_parcel",
		[]string{"land_parcel_type_id"}, typeID)
	if err != nil {
		return err
	}
	if inUse {
		return &ReferentialDeleteError{
			Reason: "land type is referenced by registered land parcels; update or delete them first to remove the type",
		}
	}

	return r.store.Delete(ctx, "land_parcel_type", []string{"id"}, typeID)
}

// typeIDByRateID resolves the owning type of a rate row.
func (r *LandTypeRepository) typeIDByRateID(ctx context.Context, rateID int64) (int64, error) {
	var typeID int64
	err := r.store.QueryRow(ctx,
		"SELECT land_parcel_type_id FROM land_parcel_type_rates WHERE id = ?", rateID).Scan(&typeID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve type of rate row %d: %w", rateID, err)
	}
	return typeID, nil
}
