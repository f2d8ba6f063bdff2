package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proptax/internal/middleware"
	"proptax/internal/repository"
	"proptax/internal/services"
)

// RealEstateHandler handles real-estate HTTP requests.
type RealEstateHandler struct {
	estates *repository.RealEstateRepository
	service services.AssessmentService
}

// NewRealEstateHandler creates a new RealEstateHandler instance.
func NewRealEstateHandler(estates *repository.RealEstateRepository, service services.AssessmentService) *RealEstateHandler {
	return &RealEstateHandler{estates: estates, service: service}
}

// RealEstateRequest is the create/update payload for a real-estate unit
// together with the year-scoped paid flag.
type RealEstateRequest struct {
	Year     int     `json:"year" binding:"required,min=1991,max=2100"`
	OwnerID  int64   `json:"owner_id" binding:"required,min=1"`
	TypeName string  `json:"type_name" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	Area     float64 `json:"area" binding:"required,gt=0"`
	Paid     bool    `json:"paid"`
	Notes    string  `json:"notes"`
}

func (r RealEstateRequest) toInput() repository.RealEstateInput {
	return repository.RealEstateInput{
		OwnerID:  r.OwnerID,
		TypeName: r.TypeName,
		Name:     r.Name,
		Address:  r.Address,
		Area:     r.Area,
		Paid:     r.Paid,
		Notes:    r.Notes,
	}
}

// List handles GET /api/v1/real-estate?year=YYYY.
func (h *RealEstateHandler) List(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	rows, err := h.estates.ListByYear(c.Request.Context(), q.Year)
	if err != nil {
		domainError(c, err, "Failed to list real estate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"real_estate": rows, "count": len(rows), "year": q.Year})
}

// Create handles POST /api/v1/real-estate.
func (h *RealEstateHandler) Create(c *gin.Context) {
	var req RealEstateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, err := h.estates.Add(c.Request.Context(), req.Year, req.toInput())
	if err != nil {
		domainError(c, err, "Failed to register real estate")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Real estate registered", map[string]interface{}{
			"estate_id": id,
			"year":      req.Year,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update handles PUT /api/v1/real-estate/:id.
func (h *RealEstateHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RealEstateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.estates.Update(c.Request.Context(), id, req.Year, req.toInput()); err != nil {
		domainError(c, err, "Failed to update real estate")
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/real-estate/:id.
func (h *RealEstateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.estates.Delete(c.Request.Context(), id); err != nil {
		domainError(c, err, "Failed to delete real estate")
		return
	}
	c.Status(http.StatusNoContent)
}

// Recalculate handles POST /api/v1/real-estate/recalculate?year=YYYY.
func (h *RealEstateHandler) Recalculate(c *gin.Context) {
	var q YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	if err := h.service.RecalculateRealEstate(c.Request.Context(), q.Year); err != nil {
		domainError(c, err, "Failed to recalculate real-estate taxes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recalculated", "year": q.Year})
}
