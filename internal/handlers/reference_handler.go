package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "proptax/internal/errors"
	"proptax/internal/repository"
	"proptax/internal/services"
)

// ReferenceHandler handles the per-year reference data that is not a rate
// table: the statutory minimum salary and the valuation copy-forward helper.
type ReferenceHandler struct {
	salaries *repository.SalaryRepository
	service  services.AssessmentService
}

// NewReferenceHandler creates a new ReferenceHandler instance.
func NewReferenceHandler(salaries *repository.SalaryRepository, service services.AssessmentService) *ReferenceHandler {
	return &ReferenceHandler{salaries: salaries, service: service}
}

// SalaryRequest is the upsert payload for a year's minimum salary; the year
// itself rides in the path.
type SalaryRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CopyValuationsRequest addresses the valuation copy-forward: fromYear's
// normative values are carried to toYear for parcels that lack one.
type CopyValuationsRequest struct {
	FromYear int `json:"from_year" binding:"required,min=1991,max=2100"`
	ToYear   int `json:"to_year" binding:"required,min=1991,max=2100"`
}

// GetSalary handles GET /api/v1/minimum-salary/:year.
func (h *ReferenceHandler) GetSalary(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}

	salary, err := h.salaries.Get(c.Request.Context(), year)
	if err != nil {
		domainError(c, err, "Failed to load minimum salary")
		return
	}
	if salary == nil {
		apierrors.NotFound(c, "No minimum salary recorded for this year")
		return
	}
	c.JSON(http.StatusOK, salary)
}

// SetSalary handles PUT /api/v1/minimum-salary/:year.
// Upserts the year's minimum salary and recalculates that year's real-estate
// taxes.
func (h *ReferenceHandler) SetSalary(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}

	var req SalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.service.SetMinimumSalary(c.Request.Context(), year, req.Amount); err != nil {
		domainError(c, err, "Failed to set minimum salary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "year": year})
}

// CopyValuations handles POST /api/v1/land-parcels/valuations/copy-forward.
// Existing target-year valuations are never overwritten.
func (h *ReferenceHandler) CopyValuations(c *gin.Context) {
	var req CopyValuationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	copied, err := h.service.CopyValuationsForward(c.Request.Context(), req.FromYear, req.ToYear)
	if err != nil {
		domainError(c, err, "Failed to copy valuations forward")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"copied":    copied,
		"from_year": req.FromYear,
		"to_year":   req.ToYear,
	})
}
