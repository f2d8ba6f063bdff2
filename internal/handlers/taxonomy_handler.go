package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proptax/internal/repository"
	"proptax/internal/services"
)

// TaxonomyHandler handles the two property-type taxonomies and their
// year-scoped rate tables. Every rate mutation goes through the assessment
// service so the affected taxes are recalculated in the same request.
type TaxonomyHandler struct {
	landTypes   *repository.LandTypeRepository
	estateTypes *repository.EstateTypeRepository
	service     services.AssessmentService
}

// NewTaxonomyHandler creates a new TaxonomyHandler instance.
func NewTaxonomyHandler(
	landTypes *repository.LandTypeRepository,
	estateTypes *repository.EstateTypeRepository,
	service services.AssessmentService,
) *TaxonomyHandler {
	return &TaxonomyHandler{
		landTypes:   landTypes,
		estateTypes: estateTypes,
		service:     service,
	}
}

// LandRateRequest is the upsert payload for a land-type rate row. A zero or
// omitted rate_id creates a new row; a non-zero one edits that row.
type LandRateRequest struct {
	RateID      int64   `json:"rate_id" binding:"min=0"`
	Year        int     `json:"year" binding:"required,min=1991,max=2100"`
	TypeName    string  `json:"type_name" binding:"required"`
	RatePercent float64 `json:"rate_percent" binding:"required,gt=0,lte=100"`
}

// EstateRateRequest is the upsert payload for a real-estate-type rate row.
type EstateRateRequest struct {
	RateID      int64   `json:"rate_id" binding:"min=0"`
	Year        int     `json:"year" binding:"required,min=1991,max=2100"`
	TypeName    string  `json:"type_name" binding:"required"`
	RatePercent float64 `json:"rate_percent" binding:"required,gt=0,lte=100"`
	AreaLimit   float64 `json:"area_limit" binding:"min=0"`
}

// RateDeleteQuery addresses rate information to delete. With a zero rate_id
// the whole type (which must have no rate rows left) is deleted by name;
// otherwise the rate row is deleted and the type removed only if nothing
// references it anymore.
type RateDeleteQuery struct {
	RateID   int64  `form:"rate_id" binding:"min=0"`
	Year     int    `form:"year" binding:"required,min=1991,max=2100"`
	TypeName string `form:"type_name" binding:"required"`
}

// ListLandRates handles GET /api/v1/land-types/rates?year=YYYY.
func (h *TaxonomyHandler) ListLandRates(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	rows, err := h.landTypes.GetTypeRates(c.Request.Context(), q.Year)
	if err != nil {
		domainError(c, err, "Failed to list land type rates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": rows, "count": len(rows), "year": q.Year})
}

// UpsertLandRate handles PUT /api/v1/land-types/rates.
func (h *TaxonomyHandler) UpsertLandRate(c *gin.Context) {
	var req LandRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.service.UpsertLandRate(c.Request.Context(), req.RateID, req.Year, req.TypeName, req.RatePercent)
	if err != nil {
		domainError(c, err, "Failed to save land type rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "year": req.Year})
}

// DeleteLandRate handles DELETE /api/v1/land-types/rates.
func (h *TaxonomyHandler) DeleteLandRate(c *gin.Context) {
	var q RateDeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	err := h.service.DeleteLandRate(c.Request.Context(), q.RateID, q.Year, q.TypeName)
	if err != nil {
		domainError(c, err, "Failed to delete land type rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "year": q.Year})
}

// ListEstateRates handles GET /api/v1/estate-types/rates?year=YYYY.
func (h *TaxonomyHandler) ListEstateRates(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	rows, err := h.estateTypes.GetTypeRates(c.Request.Context(), q.Year)
	if err != nil {
		domainError(c, err, "Failed to list real-estate type rates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": rows, "count": len(rows), "year": q.Year})
}

// UpsertEstateRate handles PUT /api/v1/estate-types/rates.
func (h *TaxonomyHandler) UpsertEstateRate(c *gin.Context) {
	var req EstateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.service.UpsertEstateRate(c.Request.Context(), req.RateID, req.Year, req.TypeName, req.RatePercent, req.AreaLimit)
	if err != nil {
		domainError(c, err, "Failed to save real-estate type rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "year": req.Year})
}

// DeleteEstateRate handles DELETE /api/v1/estate-types/rates.
func (h *TaxonomyHandler) DeleteEstateRate(c *gin.Context) {
	var q RateDeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	err := h.service.DeleteEstateRate(c.Request.Context(), q.RateID, q.Year, q.TypeName)
	if err != nil {
		domainError(c, err, "Failed to delete real-estate type rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "year": q.Year})
}
