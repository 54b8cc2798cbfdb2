// Package errors provides the error taxonomy for refmatch runs.
//
// Only FatalInputError aborts a run. DegradedRowError and ExternalLookupError
// are logged and the affected row continues with sentinel values.
package errors

import (
	"errors"
	"fmt"
)

// Aliases so callers need a single errors import.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinel errors used with errors.Is.
var (
	// ErrFatalInput indicates a required file, sheet or column is absent
	ErrFatalInput = errors.New("fatal input error")

	// ErrDegradedRow indicates a single row fell back to sentinel values
	ErrDegradedRow = errors.New("degraded row")

	// ErrExternalLookup indicates a collaborator lookup failed
	ErrExternalLookup = errors.New("external lookup failed")
)

// FatalInputError reports a missing input file, sheet or column.
type FatalInputError struct {
	Path   string
	Sheet  string
	Column string
	Err    error
}

// Error implements the error interface
func (e *FatalInputError) Error() string {
	msg := "input"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Sheet != "" {
		msg += fmt.Sprintf(" sheet %q", e.Sheet)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": not found"
}

// Unwrap implements errors.Unwrap
func (e *FatalInputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FatalInputError) Is(target error) bool {
	return target == ErrFatalInput
}

// NewFatalInputError creates a FatalInputError for a file or sheet.
func NewFatalInputError(path, sheet string, err error) *FatalInputError {
	return &FatalInputError{Path: path, Sheet: sheet, Err: err}
}

// NewMissingColumnError creates a FatalInputError for an absent column.
func NewMissingColumnError(path, sheet, column string) *FatalInputError {
	return &FatalInputError{Path: path, Sheet: sheet, Column: column}
}

// DegradedRowError describes a row that continued with an empty key or no match.
type DegradedRowError struct {
	Row    int
	Reason string
}

// Error implements the error interface
func (e *DegradedRowError) Error() string {
	return fmt.Sprintf("row %d degraded: %s", e.Row, e.Reason)
}

// Is implements errors.Is support
func (e *DegradedRowError) Is(target error) bool {
	return target == ErrDegradedRow
}

// NewDegradedRowError creates a DegradedRowError
func NewDegradedRowError(row int, reason string) *DegradedRowError {
	return &DegradedRowError{Row: row, Reason: reason}
}

// ExternalLookupError wraps a failed geocoding lookup.
type ExternalLookupError struct {
	Address string
	Status  string
	Err     error
}

// Error implements the error interface
func (e *ExternalLookupError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("lookup %q: %v", e.Address, e.Err)
	case e.Status != "":
		return fmt.Sprintf("lookup %q: status %s", e.Address, e.Status)
	default:
		return fmt.Sprintf("lookup %q failed", e.Address)
	}
}

// Unwrap implements errors.Unwrap
func (e *ExternalLookupError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExternalLookupError) Is(target error) bool {
	return target == ErrExternalLookup
}

// NewExternalLookupError creates an ExternalLookupError
func NewExternalLookupError(address, status string, err error) *ExternalLookupError {
	return &ExternalLookupError{Address: address, Status: status, Err: err}
}
