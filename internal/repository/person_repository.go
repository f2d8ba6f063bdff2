package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proptax/internal/models"
	"proptax/internal/store"
)

const personColumnsSQL = "id, last_name, first_name, middle_name, rnokpp, address, email, phone"

var personColumns = []string{"last_name", "first_name", "middle_name", "rnokpp", "address", "email", "phone"}

// PersonRepository manages taxpayer records.
type PersonRepository struct {
	store *store.Store
}

// NewPersonRepository creates a new PersonRepository.
func NewPersonRepository(s *store.Store) *PersonRepository {
	return &PersonRepository{store: s}
}

// List returns all persons ordered by last name.
func (r *PersonRepository) List(ctx context.Context) ([]models.Person, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY last_name, first_name", personColumnsSQL)

	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.LastName, &p.FirstName, &p.MiddleName,
			&p.RNOKPP, &p.Address, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan person row: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person rows: %w", err)
	}
	return persons, nil
}

// Get returns the person with the given id, or ErrNotFound.
func (r *PersonRepository) Get(ctx context.Context, id int64) (*models.Person, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = ?", personColumnsSQL)

	var p models.Person
	err := r.store.QueryRow(ctx, query, id).Scan(&p.ID, &p.LastName, &p.FirstName,
		&p.MiddleName, &p.RNOKPP, &p.Address, &p.Email, &p.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query person %d: %w", id, err)
	}
	return &p, nil
}

// Names returns the id and display name of every person, for owner lookups.
func (r *PersonRepository) Names(ctx context.Context) ([]models.PersonName, error) {
	query := `
		SELECT id, last_name || ' ' || first_name || ' ' || middle_name
		FROM users
		ORDER BY last_name, first_name
	`

	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []models.PersonName{}
	for rows.Next() {
		var n models.PersonName
		if err := rows.Scan(&n.ID, &n.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan person name row: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person name rows: %w", err)
	}
	return names, nil
}

// Create inserts a new person and returns its id. A duplicate taxpayer code
// surfaces as store.ErrUniqueConstraint.
func (r *PersonRepository) Create(ctx context.Context, p models.Person) (int64, error) {
	return r.store.Insert(ctx, "users", personColumns,
		p.LastName, p.FirstName, p.MiddleName, p.RNOKPP, p.Address, p.Email, p.Phone)
}

// Update rewrites the person's fields.
func (r *PersonRepository) Update(ctx context.Context, id int64, p models.Person) error {
	found, err := r.store.Exists(ctx, "users", []string{"id"}, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	return r.store.Update(ctx, "users",
		[]string{"id"}, []any{id},
		personColumns,
		[]any{p.LastName, p.FirstName, p.MiddleName, p.RNOKPP, p.Address, p.Email, p.Phone})
}

// Delete removes a person. Deletion is blocked with a PersonInUseError while
// the person still owns at least one land parcel or real-estate unit.
func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	found, err := r.store.Exists(ctx, "users", []string{"id"}, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	owned, err := r.countOwnedProperties(ctx, id)
	if err != nil {
		return err
	}
	if owned > 0 {
		return &PersonInUseError{Count: owned}
	}

	return r.store.Delete(ctx, "users", []string{"id"}, id)
}

// countOwnedProperties counts the land parcels and real-estate units that
// reference the person as owner.
func (r *PersonRepository) countOwnedProperties(ctx context.Context, id int64) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM land_parcel WHERE user_id = ?) +
			(SELECT COUNT(*) FROM real_estate WHERE user_id = ?)
	`

	var count int
	if err := r.store.QueryRow(ctx, query, id, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count properties of person %d: %w", id, err)
	}
	return count, nil
}
