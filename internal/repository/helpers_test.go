package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"proptax/internal/config"
	"proptax/internal/database"
	"proptax/internal/models"
	"proptax/internal/store"
)

// newTestStore opens an in-memory registry with the full schema applied.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:          ":memory:",
		BusyTimeoutMS: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store.New(db)
}

// strptr is a shorthand for optional string fields.
func strptr(s string) *string {
	return &s
}

// seedPerson inserts a taxpayer and returns its id.
func seedPerson(t *testing.T, s *store.Store, rnokpp string) int64 {
	t.Helper()

	persons := NewPersonRepository(s)
	id, err := persons.Create(context.Background(), models.Person{
		LastName:   "Shevchenko",
		FirstName:  "Taras",
		MiddleName: "Hryhorovych",
		RNOKPP:     rnokpp,
		Address:    "Kaniv, Monastyrska St 1",
	})
	require.NoError(t, err)
	return id
}

// seedLandWorld creates the fixtures most land-parcel tests need: an owner,
// a "residential" land type with a 0.5% rate for 2024, and the repositories
// wired the way the composition root wires them.
func seedLandWorld(t *testing.T, s *store.Store) (ownerID int64, parcels *LandParcelRepository, types *LandTypeRepository, valuations *ValuationRepository) {
	t.Helper()
	ctx := context.Background()

	ownerID = seedPerson(t, s, "1234567890")

	types = NewLandTypeRepository(s)
	require.NoError(t, types.AddRate(ctx, 2024, "residential", 0.5))

	valuations = NewValuationRepository(s)
	parcels = NewLandParcelRepository(s, types, valuations)
	return ownerID, parcels, types, valuations
}

// seedEstateWorld mirrors seedLandWorld for real estate: an owner, an
// "apartment" type with a 1.5% rate and 60 m² exemption for 2024, and the
// 2024 minimum salary of 8000.
func seedEstateWorld(t *testing.T, s *store.Store) (ownerID int64, estates *RealEstateRepository, types *EstateTypeRepository, salaries *SalaryRepository) {
	t.Helper()
	ctx := context.Background()

	ownerID = seedPerson(t, s, "0987654321")

	types = NewEstateTypeRepository(s)
	require.NoError(t, types.AddRate(ctx, 2024, "apartment", 1.5, 60))

	salaries = NewSalaryRepository(s)
	require.NoError(t, salaries.Set(ctx, 2024, 8000))

	estates = NewRealEstateRepository(s, types, salaries)
	return ownerID, estates, types, salaries
}
