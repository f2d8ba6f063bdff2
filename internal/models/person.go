package models

import "fmt"

// Person is a taxpayer that can own land parcels and real-estate units.
// RNOKPP is the registration number of the taxpayer's record card; it is
// unique across all persons.
// Optional contact fields use pointers to distinguish empty values from NULL.
type Person struct {
	ID         int64   `json:"id"`
	LastName   string  `json:"last_name"`
	FirstName  string  `json:"first_name"`
	MiddleName string  `json:"middle_name"`
	RNOKPP     string  `json:"rnokpp"`
	Address    string  `json:"address"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// FullName renders the display name used when resolving owners.
func (p Person) FullName() string {
	return fmt.Sprintf("%s %s %s", p.LastName, p.FirstName, p.MiddleName)
}

// PersonName is the id <-> display-name projection consumed by owner lookups.
type PersonName struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}
