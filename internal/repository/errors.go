package repository

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup and guard errors shared by the repositories.
var (
	// ErrNotFound is returned when a record addressed by id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrTypeNotFound is returned when a property type name or id cannot
	// be resolved.
	ErrTypeNotFound = errors.New("property type not found")

	// ErrDuplicateRate is returned when a rate row for the same (type,
	// year) pair already exists.
	ErrDuplicateRate = errors.New("a tax rate for this type and year already exists")
)

// ReferentialDeleteError blocks deleting a taxonomy type that is still
// referenced. The message distinguishes the two causes (other-year rate rows
// versus owning properties) to guide the caller.
type ReferentialDeleteError struct {
	Reason string
}

func (e *ReferentialDeleteError) Error() string {
	return e.Reason
}

// PersonInUseError blocks deleting a person who still owns property.
type PersonInUseError struct {
	Count int
}

func (e *PersonInUseError) Error() string {
	return fmt.Sprintf("person still owns %d properties and cannot be deleted", e.Count)
}

// RecalcError aggregates per-row failures of a batch recalculation. The
// batch never aborts partway: Failed counts every row that could not be
// recalculated and Messages lists each distinct cause once.
type RecalcError struct {
	Failed   int
	Messages []string
}

func (e *RecalcError) Error() string {
	return fmt.Sprintf("tax recalculation failed for %d rows: %s",
		e.Failed, strings.Join(e.Messages, "; "))
}
