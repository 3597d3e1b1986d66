package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced datatype or record cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSearchStructure is returned when a facet or term descriptor is malformed.
	ErrInvalidSearchStructure = errors.New("invalid search structure")

	// ErrUnsupportedOperation is returned for field kind and search mode
	// combinations that are defined but not implemented.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInconsistentState indicates that the topology and the record state map
	// disagree about the record universe. It is never caused by user input.
	ErrInconsistentState = errors.New("inconsistent search state")
)

// NotFoundError names the entity that could not be resolved.
type NotFoundError struct {
	Kind string // "datatype", "record", "template", "field"
	ID   uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidTermError describes a malformed facet or term.
type InvalidTermError struct {
	Facet  string
	Field  FieldID
	Reason string
}

func (e *InvalidTermError) Error() string {
	if e.Facet != "" {
		return fmt.Sprintf("invalid term in facet %q (field %d): %s", e.Facet, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid term (field %d): %s", e.Field, e.Reason)
}

func (e *InvalidTermError) Unwrap() error { return ErrInvalidSearchStructure }

// UnsupportedError names the unimplemented combination.
type UnsupportedError struct {
	Kind string
	Mode string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s search is not implemented for %s", e.Kind, e.Mode)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedOperation }

// InconsistencyError reports a record referenced by the topology without a
// state entry.
type InconsistencyError struct {
	Record   RecordID
	Datatype DatatypeID
}

func (e *InconsistencyError) Error() string {
	if e.Datatype != 0 {
		return fmt.Sprintf("record %d of datatype %d has no search state", e.Record, e.Datatype)
	}
	return fmt.Sprintf("record %d has no search state", e.Record)
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistentState }
