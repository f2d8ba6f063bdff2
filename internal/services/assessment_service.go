package services

import (
	"context"
	"errors"
	"fmt"

	"proptax/internal/logger"
	"proptax/internal/repository"
)

// Service-level errors
var (
	// ErrInvalidYear is returned when a year is outside the supported range.
	ErrInvalidYear = errors.New("invalid tax year")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Year validation constants
const (
	MinYear = 1991
	MaxYear = 2100
)

// AssessmentService orchestrates the edits that invalidate previously
// computed taxes: rate-table changes, minimum-salary changes, and valuation
// copy-forward. Every such edit is followed by a full recalculation of the
// affected property kind for the year, so the stored tax rows stay
// consistent with their inputs.
//
// The edit itself is not rolled back when the recalculation reports per-row
// failures; the aggregate RecalcError propagates to the caller alongside
// the already-applied change.
type AssessmentService interface {
	// UpsertLandRate adds (rateID 0) or edits a land rate row, then
	// recalculates all land taxes for the year.
	UpsertLandRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent float64) error

	// DeleteLandRate deletes land rate information, then recalculates
	// all land taxes for the year.
	DeleteLandRate(ctx context.Context, rateID int64, year int, typeName string) error

	// UpsertEstateRate adds (rateID 0) or edits a real-estate rate row,
	// then recalculates all real-estate taxes for the year.
	UpsertEstateRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent, areaLimit float64) error

	// DeleteEstateRate deletes real-estate rate information, then
	// recalculates all real-estate taxes for the year.
	DeleteEstateRate(ctx context.Context, rateID int64, year int, typeName string) error

	// SetMinimumSalary upserts the year's minimum salary, then
	// recalculates all real-estate taxes for the year.
	SetMinimumSalary(ctx context.Context, year int, amount float64) error

	// CopyValuationsForward copies fromYear's normative values to toYear
	// for parcels lacking one, then recalculates all land taxes for
	// toYear. Returns the number of copied valuations.
	CopyValuationsForward(ctx context.Context, fromYear, toYear int) (int, error)

	// RecalculateLand re-derives all land taxes for the year.
	RecalculateLand(ctx context.Context, year int) error

	// RecalculateRealEstate re-derives all real-estate taxes for the year.
	RecalculateRealEstate(ctx context.Context, year int) error
}

// assessmentService is the concrete implementation of AssessmentService.
type assessmentService struct {
	landTypes   *repository.LandTypeRepository
	estateTypes *repository.EstateTypeRepository
	salaries    *repository.SalaryRepository
	valuations  *repository.ValuationRepository
	parcels     *repository.LandParcelRepository
	estates     *repository.RealEstateRepository
	log         *logger.Logger
}

// NewAssessmentService creates a new AssessmentService over already-built
// repositories.
func NewAssessmentService(
	landTypes *repository.LandTypeRepository,
	estateTypes *repository.EstateTypeRepository,
	salaries *repository.SalaryRepository,
	valuations *repository.ValuationRepository,
	parcels *repository.LandParcelRepository,
	estates *repository.RealEstateRepository,
	log *logger.Logger,
) AssessmentService {
	return &assessmentService{
		landTypes:   landTypes,
		estateTypes: estateTypes,
		salaries:    salaries,
		valuations:  valuations,
		parcels:     parcels,
		estates:     estates,
		log:         log,
	}
}

// validateYear checks the year is within the supported range.
func validateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year must be between %d and %d, got %d",
			ErrInvalidYear, MinYear, MaxYear, year)
	}
	return nil
}

func (s *assessmentService) UpsertLandRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent float64) error {
	if err := validateYear(year); err != nil {
		return err
	}

	s.log.Info("Upserting land rate", map[string]interface{}{
		"rate_id": rateID,
		"year":    year,
		"type":    typeName,
		"rate":    ratePercent,
	})

	if err := s.landTypes.UpdateRate(ctx, rateID, year, typeName, ratePercent); err != nil {
		return err
	}

	return s.RecalculateLand(ctx, year)
}

func (s *assessmentService) DeleteLandRate(ctx context.Context, rateID int64, year int, typeName string) error {
	if err := validateYear(year); err != nil {
		return err
	}

	s.log.Info("Deleting land rate", map[string]interface{}{
		"rate_id": rateID,
		"year":    year,
		"type":    typeName,
	})

	err := s.landTypes.DeleteRate(ctx, rateID, typeName)
	var refErr *repository.ReferentialDeleteError
	if err != nil && !errors.As(err, &refErr) {
		return err
	}

	// A referential guard keeps the type alive but the targeted rate row is
	// already gone, so the year's taxes need recalculating either way.
	if recalcErr := s.RecalculateLand(ctx, year); err == nil {
		return recalcErr
	}
	return err
}

func (s *assessmentService) UpsertEstateRate(ctx context.Context, rateID int64, year int, typeName string, ratePercent, areaLimit float64) error {
	if err := validateYear(year); err != nil {
		return err
	}

	s.log.Info("Upserting real-estate rate", map[string]interface{}{
		"rate_id":    rateID,
		"year":       year,
		"type":       typeName,
		"rate":       ratePercent,
		"area_limit": areaLimit,
	})

	if err := s.estateTypes.UpdateRate(ctx, rateID, year, typeName, ratePercent, areaLimit); err != nil {
		return err
	}

	return s.RecalculateRealEstate(ctx, year)
}

func (s *assessmentService) DeleteEstateRate(ctx context.Context, rateID int64, year int, typeName string) error {
	if err := validateYear(year); err != nil {
		return err
	}

	s.log.Info("Deleting real-estate rate", map[string]interface{}{
		"rate_id": rateID,
		"year":    year,
		"type":    typeName,
	})

	err := s.estateTypes.DeleteRate(ctx, rateID, typeName)
	var refErr *repository.ReferentialDeleteError
	if err != nil && !errors.As(err, &refErr) {
		return err
	}

	if recalcErr := s.RecalculateRealEstate(ctx, year); err == nil {
		return recalcErr
	}
	return err
}

func (s *assessmentService) SetMinimumSalary(ctx context.Context, year int, amount float64) error {
	if err := validateYear(year); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: got %f", ErrInvalidAmount, amount)
	}

	s.log.Info("Setting minimum salary", map[string]interface{}{
		"year":   year,
		"amount": amount,
	})

	if err := s.salaries.Set(ctx, year, amount); err != nil {
		return err
	}

	return s.RecalculateRealEstate(ctx, year)
}

func (s *assessmentService) CopyValuationsForward(ctx context.Context, fromYear, toYear int) (int, error) {
	if err := validateYear(fromYear); err != nil {
		return 0, err
	}
	if err := validateYear(toYear); err != nil {
		return 0, err
	}
	if fromYear == toYear {
		return 0, fmt.Errorf("%w: source and target year are both %d", ErrInvalidYear, fromYear)
	}

	copied, err := s.valuations.CopyForward(ctx, fromYear, toYear)
	if err != nil {
		return 0, err
	}

	s.log.Info("Copied valuations forward", map[string]interface{}{
		"from_year": fromYear,
		"to_year":   toYear,
		"copied":    copied,
	})

	return copied, s.RecalculateLand(ctx, toYear)
}

func (s *assessmentService) RecalculateLand(ctx context.Context, year int) error {
	if err := validateYear(year); err != nil {
		return err
	}

	err := s.parcels.RecalculateAll(ctx, year)

	var recalcErr *repository.RecalcError
	if errors.As(err, &recalcErr) {
		s.log.Warn("Land recalculation finished with failures", map[string]interface{}{
			"year":   year,
			"failed": recalcErr.Failed,
			"causes": recalcErr.Messages,
		})
		return err
	}
	if err != nil {
		s.log.Error("Land recalculation failed", err, map[string]interface{}{"year": year})
		return fmt.Errorf("failed to recalculate land taxes: %w", err)
	}

	s.log.Info("Land taxes recalculated", map[string]interface{}{"year": year})
	return nil
}

func (s *assessmentService) RecalculateRealEstate(ctx context.Context, year int) error {
	if err := validateYear(year); err != nil {
		return err
	}

	err := s.estates.RecalculateAll(ctx, year)

	var recalcErr *repository.RecalcError
	if errors.As(err, &recalcErr) {
		s.log.Warn("Real-estate recalculation finished with failures", map[string]interface{}{
			"year":   year,
			"failed": recalcErr.Failed,
			"causes": recalcErr.Messages,
		})
		return err
	}
	if err != nil {
		s.log.Error("Real-estate recalculation failed", err, map[string]interface{}{"year": year})
		return fmt.Errorf("failed to recalculate real-estate taxes: %w", err)
	}

	s.log.Info("Real-estate taxes recalculated", map[string]interface{}{"year": year})
	return nil
}
