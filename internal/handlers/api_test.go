package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptax/internal/logger"
	"proptax/internal/middleware"
	"proptax/internal/repository"
	"proptax/internal/services"
	"proptax/internal/store"
)

// newTestAPI wires the full stack over an in-memory registry, mirroring the
// composition root.
func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)
	records := store.New(db)
	log := logger.New("production")

	personRepo := repository.NewPersonRepository(records)
	landTypeRepo := repository.NewLandTypeRepository(records)
	estateTypeRepo := repository.NewEstateTypeRepository(records)
	salaryRepo := repository.NewSalaryRepository(records)
	valuationRepo := repository.NewValuationRepository(records)
	parcelRepo := repository.NewLandParcelRepository(records, landTypeRepo, valuationRepo)
	estateRepo := repository.NewRealEstateRepository(records, estateTypeRepo, salaryRepo)

	svc := services.NewAssessmentService(
		landTypeRepo, estateTypeRepo, salaryRepo, valuationRepo, parcelRepo, estateRepo, log)

	personHandler := NewPersonHandler(personRepo)
	parcelHandler := NewLandParcelHandler(parcelRepo, svc)
	estateHandler := NewRealEstateHandler(estateRepo, svc)
	taxonomyHandler := NewTaxonomyHandler(landTypeRepo, estateTypeRepo, svc)
	referenceHandler := NewReferenceHandler(salaryRepo, svc)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/persons", personHandler.List)
		v1.GET("/persons/names", personHandler.Names)
		v1.GET("/persons/:id", personHandler.Get)
		v1.POST("/persons", personHandler.Create)
		v1.PUT("/persons/:id", personHandler.Update)
		v1.DELETE("/persons/:id", personHandler.Delete)

		v1.GET("/land-parcels", parcelHandler.List)
		v1.POST("/land-parcels", parcelHandler.Create)
		v1.PUT("/land-parcels/:id", parcelHandler.Update)
		v1.DELETE("/land-parcels/:id", parcelHandler.Delete)
		v1.POST("/land-parcels/recalculate", parcelHandler.Recalculate)
		v1.POST("/land-parcels/valuations/copy-forward", referenceHandler.CopyValuations)

		v1.GET("/real-estate", estateHandler.List)
		v1.POST("/real-estate", estateHandler.Create)

		v1.GET("/land-types/rates", taxonomyHandler.ListLandRates)
		v1.PUT("/land-types/rates", taxonomyHandler.UpsertLandRate)
		v1.DELETE("/land-types/rates", taxonomyHandler.DeleteLandRate)

		v1.PUT("/estate-types/rates", taxonomyHandler.UpsertEstateRate)

		v1.GET("/minimum-salary/:year", referenceHandler.GetSalary)
		v1.PUT("/minimum-salary/:year", referenceHandler.SetSalary)
	}

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validPerson(rnokpp string) gin.H {
	return gin.H{
		"last_name":   "Honcharenko",
		"first_name":  "Mariya",
		"middle_name": "Stepanivna",
		"rnokpp":      rnokpp,
		"address":     "Poltava, Soborna St 8",
	}
}

func TestPersonEndpoints(t *testing.T) {
	router := newTestAPI(t)

	t.Run("create returns 201 with id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/persons", validPerson("1111111111"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp map[string]int64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Positive(t, resp["id"])
	})

	t.Run("duplicate rnokpp returns 409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/persons", validPerson("1111111111"))
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("invalid rnokpp returns 400 with field details", func(t *testing.T) {
		p := validPerson("12345")
		w := doJSON(t, router, http.MethodPost, "/api/v1/persons", p)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "RNOKPP")
	})

	t.Run("get unknown id returns 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/persons/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/persons/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list returns created persons", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/persons", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Honcharenko")
	})
}

func TestLandParcelEndpoints(t *testing.T) {
	router := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/persons", validPerson("2222222222"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	ownerID := created["id"]

	parcel := gin.H{
		"year": 2024, "owner_id": ownerID, "type_name": "residential",
		"address": "field 1", "area": 1000.0, "normative_value": 20000.0,
	}

	t.Run("create without a rate returns 422", func(t *testing.T) {
		// the upsert creates the type with a 2023 rate only
		w := doJSON(t, router, http.MethodPut, "/api/v1/land-types/rates", gin.H{
			"year": 2023, "type_name": "residential", "rate_percent": 0.5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, router, http.MethodPost, "/api/v1/land-parcels", parcel)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("create with unknown type returns 404", func(t *testing.T) {
		bad := gin.H{
			"year": 2024, "owner_id": ownerID, "type_name": "swamp",
			"address": "x", "area": 1.0, "normative_value": 1.0,
		}
		w := doJSON(t, router, http.MethodPost, "/api/v1/land-parcels", bad)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	t.Run("create succeeds once the year has a rate", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/land-types/rates", gin.H{
			"year": 2024, "type_name": "residential", "rate_percent": 0.5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, router, http.MethodPost, "/api/v1/land-parcels", parcel)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = doJSON(t, router, http.MethodGet, "/api/v1/land-parcels?year=2024", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "100000")
	})

	t.Run("listing without year returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/land-parcels", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("owner deletion is blocked with 409", func(t *testing.T) {
		path := "/api/v1/persons/" + strconv.FormatInt(ownerID, 10)
		w := doJSON(t, router, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "owned_properties")
	})

	t.Run("duplicate rate upsert returns 409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/land-types/rates", gin.H{
			"year": 2024, "type_name": "residential", "rate_percent": 0.7,
		})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("recalculate reports failures as 409", func(t *testing.T) {
		// 2030 has no rates or valuations, so the only parcel fails
		w := doJSON(t, router, http.MethodPost, "/api/v1/land-parcels/recalculate?year=2030", nil)
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "failed_rows")
	})
}

func TestReferenceEndpoints(t *testing.T) {
	router := newTestAPI(t)

	t.Run("salary for unknown year returns 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/minimum-salary/2024", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("salary upsert then get", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/minimum-salary/2024", gin.H{
			"amount": 8000.0,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, router, http.MethodGet, "/api/v1/minimum-salary/2024", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "8000")
	})

	t.Run("salary with junk year returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/minimum-salary/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("copy valuations to the same year returns 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/land-parcels/valuations/copy-forward", gin.H{
			"from_year": 2024, "to_year": 2024,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}
