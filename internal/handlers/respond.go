package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "proptax/internal/errors"
	"proptax/internal/repository"
	"proptax/internal/services"
	"proptax/internal/store"
	"proptax/internal/tax"
)

// pathID parses the :id path segment, writing a 400 response on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid id path parameter", nil)
		return 0, false
	}
	return id, true
}

// pathYear parses the :year path segment, writing a 400 response on failure.
func pathYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1991 || year > 2100 {
		apierrors.BadRequest(c, "Invalid year path parameter", nil)
		return 0, false
	}
	return year, true
}

// bindError maps a gin binding failure to the right client error: field-level
// validation details when the validator produced them, a generic bad request
// otherwise.
func bindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, "Invalid request payload", nil)
}

// domainError maps repository and calculator errors onto the HTTP surface:
//
//	400: invalid year or amount rejected by the service layer
//	404: record or type not found
//	409: duplicate rates, referential guards, unique-constraint hits,
//	     and recalculations that finished with per-row failures
//	422: missing per-year reference data (rate, minimum salary, valuation)
//	500: everything else
func domainError(c *gin.Context, err error, fallback string) {
	var refErr *repository.ReferentialDeleteError
	var inUseErr *repository.PersonInUseError
	var recalcErr *repository.RecalcError

	switch {
	case errors.Is(err, services.ErrInvalidYear),
		errors.Is(err, services.ErrInvalidAmount):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(c, "Record not found")
	case errors.Is(err, repository.ErrTypeNotFound):
		apierrors.NotFound(c, "Property type not found")
	case errors.Is(err, repository.ErrDuplicateRate):
		apierrors.Conflict(c, err.Error(), nil)
	case errors.As(err, &refErr):
		apierrors.Conflict(c, refErr.Reason, nil)
	case errors.As(err, &inUseErr):
		apierrors.Conflict(c, inUseErr.Error(), map[string]interface{}{
			"owned_properties": inUseErr.Count,
		})
	case errors.As(err, &recalcErr):
		apierrors.Conflict(c, "The change was applied but some taxes could not be recalculated", map[string]interface{}{
			"failed_rows": recalcErr.Failed,
			"causes":      recalcErr.Messages,
		})
	case errors.Is(err, store.ErrUniqueConstraint):
		apierrors.Conflict(c, "A record with the same unique value already exists", nil)
	case errors.Is(err, tax.ErrMissingRate),
		errors.Is(err, tax.ErrMissingWage),
		errors.Is(err, tax.ErrMissingValuation):
		apierrors.UnprocessableEntity(c, err.Error())
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
