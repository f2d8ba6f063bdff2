package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proptax/internal/middleware"
	"proptax/internal/models"
	"proptax/internal/repository"
)

// PersonHandler handles taxpayer-related HTTP requests.
type PersonHandler struct {
	persons *repository.PersonRepository
}

// NewPersonHandler creates a new PersonHandler instance.
func NewPersonHandler(persons *repository.PersonRepository) *PersonHandler {
	return &PersonHandler{persons: persons}
}

// PersonRequest is the create/update payload for a taxpayer.
type PersonRequest struct {
	LastName   string  `json:"last_name" binding:"required"`
	FirstName  string  `json:"first_name" binding:"required"`
	MiddleName string  `json:"middle_name" binding:"required"`
	RNOKPP     string  `json:"rnokpp" binding:"required,len=10,numeric"`
	Address    string  `json:"address" binding:"required"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone" binding:"omitempty,min=7,max=20"`
}

func (r PersonRequest) toModel() models.Person {
	return models.Person{
		LastName:   r.LastName,
		FirstName:  r.FirstName,
		MiddleName: r.MiddleName,
		RNOKPP:     r.RNOKPP,
		Address:    r.Address,
		Email:      r.Email,
		Phone:      r.Phone,
	}
}

// List handles GET /api/v1/persons.
func (h *PersonHandler) List(c *gin.Context) {
	persons, err := h.persons.List(c.Request.Context())
	if err != nil {
		domainError(c, err, "Failed to list persons")
		return
	}
	c.JSON(http.StatusOK, gin.H{"persons": persons, "count": len(persons)})
}

// Names handles GET /api/v1/persons/names, the owner-lookup projection.
func (h *PersonHandler) Names(c *gin.Context) {
	names, err := h.persons.Names(c.Request.Context())
	if err != nil {
		domainError(c, err, "Failed to list person names")
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names, "count": len(names)})
}

// Get handles GET /api/v1/persons/:id.
func (h *PersonHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	person, err := h.persons.Get(c.Request.Context(), id)
	if err != nil {
		domainError(c, err, "Failed to load person")
		return
	}
	c.JSON(http.StatusOK, person)
}

// Create handles POST /api/v1/persons.
func (h *PersonHandler) Create(c *gin.Context) {
	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, err := h.persons.Create(c.Request.Context(), req.toModel())
	if err != nil {
		domainError(c, err, "Failed to create person")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Person created", map[string]interface{}{"person_id": id})
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update handles PUT /api/v1/persons/:id.
func (h *PersonHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.persons.Update(c.Request.Context(), id, req.toModel()); err != nil {
		domainError(c, err, "Failed to update person")
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/persons/:id. Deletion is refused with 409
// while the person still owns property.
func (h *PersonHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.persons.Delete(c.Request.Context(), id); err != nil {
		domainError(c, err, "Failed to delete person")
		return
	}
	c.Status(http.StatusNoContent)
}
