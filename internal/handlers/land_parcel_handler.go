package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proptax/internal/middleware"
	"proptax/internal/repository"
	"proptax/internal/services"
)

// LandParcelHandler handles land-parcel HTTP requests.
type LandParcelHandler struct {
	parcels *repository.LandParcelRepository
	service services.AssessmentService
}

// NewLandParcelHandler creates a new LandParcelHandler instance.
func NewLandParcelHandler(parcels *repository.LandParcelRepository, service services.AssessmentService) *LandParcelHandler {
	return &LandParcelHandler{parcels: parcels, service: service}
}

// YearQuery carries the tax year every per-year listing and recalculation
// operates on. The year is always explicit; there is no implicit current
// year.
type YearQuery struct {
	Year int `form:"year" binding:"required,min=1991,max=2100"`
}

// LandParcelRequest is the create/update payload for a parcel together with
// the year-scoped valuation and paid flag.
type LandParcelRequest struct {
	Year           int     `json:"year" binding:"required,min=1991,max=2100"`
	OwnerID        int64   `json:"owner_id" binding:"required,min=1"`
	TypeName       string  `json:"type_name" binding:"required"`
	Address        string  `json:"address" binding:"required"`
	Area           float64 `json:"area" binding:"required,gt=0"`
	Privileged     bool    `json:"privileged"`
	NormativeValue float64 `json:"normative_value" binding:"min=0"`
	Paid           bool    `json:"paid"`
	Notes          string  `json:"notes"`
}

func (r LandParcelRequest) toInput() repository.LandParcelInput {
	return repository.LandParcelInput{
		OwnerID:        r.OwnerID,
		TypeName:       r.TypeName,
		Address:        r.Address,
		Area:           r.Area,
		Privileged:     r.Privileged,
		NormativeValue: r.NormativeValue,
		Paid:           r.Paid,
		Notes:          r.Notes,
	}
}

// List handles GET /api/v1/land-parcels?year=YYYY.
// Returns the denormalized per-year listing; parcels missing the year's
// valuation, rate or tax rows come back with null fields.
func (h *LandParcelHandler) List(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	rows, err := h.parcels.ListByYear(c.Request.Context(), q.Year)
	if err != nil {
		domainError(c, err, "Failed to list land parcels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"land_parcels": rows, "count": len(rows), "year": q.Year})
}

// Create handles POST /api/v1/land-parcels.
func (h *LandParcelHandler) Create(c *gin.Context) {
	var req LandParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, err := h.parcels.Add(c.Request.Context(), req.Year, req.toInput())
	if err != nil {
		domainError(c, err, "Failed to register land parcel")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Land parcel registered", map[string]interface{}{
			"parcel_id": id,
			"year":      req.Year,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update handles PUT /api/v1/land-parcels/:id.
func (h *LandParcelHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req LandParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.parcels.Update(c.Request.Context(), id, req.Year, req.toInput()); err != nil {
		domainError(c, err, "Failed to update land parcel")
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/land-parcels/:id.
func (h *LandParcelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.parcels.Delete(c.Request.Context(), id); err != nil {
		domainError(c, err, "Failed to delete land parcel")
		return
	}
	c.Status(http.StatusNoContent)
}

// Recalculate handles POST /api/v1/land-parcels/recalculate?year=YYYY.
// Re-derives every parcel's tax for the year; per-row failures are collected
// and reported as a 409 after the full pass.
func (h *LandParcelHandler) Recalculate(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	if err := h.service.RecalculateLand(c.Request.Context(), q.Year); err != nil {
		domainError(c, err, "Failed to recalculate land taxes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recalculated", "year": q.Year})
}
