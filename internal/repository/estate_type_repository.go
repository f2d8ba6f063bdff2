package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proptax/internal/models"
	"proptax/internal/store"
)

// EstateTypeRepository manages the real-estate taxonomy. It mirrors
// LandTypeRepository, with the addition of the per-year taxable-area
// exemption limit on every rate row.
type EstateTypeRepository struct {
	store *store.Store
}

// NewEstateTypeRepository creates a new EstateTypeRepository.
func NewEstateTypeRepository(s *store.Store) *EstateTypeRepository {
	return &EstateTypeRepository{store: s}
}

// GetTypeRates returns every known real-estate type joined against the
// given year's rate row; absent rate fields are nil.
func (r *EstateTypeRepository) GetTypeRates(ctx context.Context, year int) ([]models.TypeRateRow, error) {
	query := `
		SELECT real_estate_type_rates.id, real_estate_type.name,
			real_estate_type_rates.tax_rate, real_estate_type_rates.tax_area_limit
		FROM real_estate_type
		LEFT JOIN real_estate_type_rates
			ON real_estate_type.id = real_estate_type_rates.real_estate_type_id
			AND real_estate_type_rates.tax_year = ?
		ORDER BY real_estate_type.name
	`

	rows, err := r.store.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.TypeRateRow{}
	for rows.Next() {
		var row models.TypeRateRow
		if err := rows.Scan(&row.RateID, &row.TypeName, &row.RatePercent, &row.AreaLimit); err != nil {
			return nil, fmt.Errorf("failed to scan estate type rate row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estate type rate rows: %w", err)
	}
	return result, nil
}

// TypeByName resolves a real-estate type by name. Returns nil, nil when
// absent.
func (r *EstateTypeRepository) TypeByName(ctx context.Context, name string) (*models.PropertyType, error) {
	var t models.PropertyType
	err := r.store.QueryRow(ctx,
		"SELECT id, name FROM real_estate_type WHERE name = ?", name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query estate type %q: %w", name, err)
	}
	return &t, nil
}

// RateFor resolves the rate row for (type, year). Returns nil, nil when the
// year has no rate for the type.
func (r *EstateTypeRepository) RateFor(ctx context.Context, year int, typeID int64) (*models.EstateTypeRate, error) {
	var rate models.EstateTypeRate
	err := r.store.QueryRow(ctx, `
		SELECT id, real_estate_type_id, tax_year, tax_rate, tax_area_limit
		FROM real_estate_type_rates
		WHERE tax_year = ? AND real_estate_type_id = ?
	`, year, typeID).Scan(&rate.ID, &rate.TypeID, &rate.Year, &rate.RatePercent, &rate.AreaLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query estate rate for type %d year %d: %w", typeID, year, err)
	}
	return &rate, nil
}

// AddRate looks up or creates the named type, then inserts a new rate row
// for (type, year). Fails with ErrDuplicateRate when the pair already has
// a rate.
func (r *EstateTypeRepository) AddRate(ctx context.Context, year int, typeName string, ratePercent, areaLimit float64) error {
	typeRecord, err := r.TypeByName(ctx, typeName)
	if err != nil {
		return err
	}
	if typeRecord == nil {
		id, err := r.store.Insert(ctx, "real_estate_type", []string{"name"}, typeName)
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

	_, err = r.store.Insert(ctx, "real_estate_type_rates",
		[]string{"real_estate_type_id", "tax_year", "tax_rate", "tax_area_limit"},
		typeRecord.ID, year, ratePercent, areaLimit)
	return err
}

// UpdateRate edits an existing rate row; a rateID of 0 behaves as AddRate.
// Once a type has a rate row it is identified by that linkage, so a name
// that matches no existing type renames the linked type in place.
func (r *EstateTypeRepository) UpdateRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent, areaLimit float64) error {
	if rateID == 0 {
		return r.AddRate(ctx, year, typeName, ratePercent, areaLimit)
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
		if err := r.store.Update(ctx, "real_estate_type",
			[]string{"id"}, []any{typeID},
			[]string{"name"}, []any{typeName}); err != nil {
			return err
		}
	}

	return r.store.Update(ctx, "real_estate_type_rates",
		[]string{"id"}, []any{rateID},
		[]string{"tax_year", "real_estate_type_id", "tax_rate", "tax_area_limit"},
		[]any{year, typeID, ratePercent, areaLimit})
}

// DeleteRate removes rate information for a type, with the same two-stage
// guard as the land taxonomy: the explicit rate row is deleted first, then
// the type goes only when no other-year rates remain and no unit uses it.
func (r *EstateTypeRepository) DeleteRate(ctx context.Context, rateID int64, typeName string) error {
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
		if err := r.store.Delete(ctx, "real_estate_type_rates", []string{"id"}, rateID); err != nil {
			return err
		}
	}

	hasRates, err := r.store.Exists(ctx, "real_estate_type_rates",
		[]string{"real_estate_type_id"}, typeID)
	if err != nil {
		return err
	}
	if hasRates {
		return &ReferentialDeleteError{
			Reason: "real-estate type still has tax rates for other years; delete them first to remove the type",
		}
	}

	inUse, err := r.store.Exists(ctx, "real_estate",
		[]string{"real_estate_type_id"}, typeID)
	if err != nil {
		return err
	}
	if inUse {
		return &ReferentialDeleteError{
			Reason: "real-estate type is referenced by registered units; update or delete them first to remove the type",
		}
	}

	return r.store.Delete(ctx, "real_estate_type", []string{"id"}, typeID)
}

func (r *EstateTypeRepository) typeIDByRateID(ctx context.Context, rateID int64) (int64, error) {
	var typeID int64
	err := r.store.QueryRow(ctx,
		"SELECT real_estate_type_id FROM real_estate_type_rates WHERE id = ?", rateID).Scan(&typeID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve type of rate row %d: %w", rateID, err)
	}
	return typeID, nil
}
