package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLive is returned when approving a book that is already live.
	ErrAlreadyLive = errors.New("book is already live")

	// ErrAlreadySold is returned when recording a sale for a book that has
	// already been sold.
	ErrAlreadySold = errors.New("book is already sold")
)

// ValidationError marks a client-side input problem.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ConflictError marks a duplicate-ISBN ingestion and names the record that
// already holds the identifier.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("isbn already registered as book %s", e.ExistingID)
}
