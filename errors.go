package facetree

import (
	"errors"

	"github.com/hupe1980/facetree/model"
)

var (
	// ErrNotFound is returned when a referenced datatype, template, field or
	// record cannot be resolved.
	ErrNotFound = model.ErrNotFound

	// ErrInvalidSearchStructure is returned when a facet or term is malformed.
	ErrInvalidSearchStructure = model.ErrInvalidSearchStructure

	// ErrUnsupportedOperation is returned for field kind and search mode
	// combinations that are defined but not implemented.
	ErrUnsupportedOperation = model.ErrUnsupportedOperation

	// ErrInconsistentState is returned when the topology references a record
	// without search state. It indicates a bug in a collaborator, never bad input.
	ErrInconsistentState = model.ErrInconsistentState

	// ErrNoRoots is returned for a request without roots or template.
	ErrNoRoots = errors.New("search has no roots")

	// ErrClosed is returned when the engine has been closed.
	ErrClosed = errors.New("engine closed")
)

// ErrInvalidTerm describes a malformed facet or term.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidTerm struct {
	Facet  string
	Field  model.FieldID
	Reason string
	cause  error
}

func (e *ErrInvalidTerm) Error() string {
	return e.cause.Error()
}

func (e *ErrInvalidTerm) Unwrap() error { return e.cause }

// ErrUnsupported names an unimplemented kind and mode combination.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrUnsupported struct {
	Kind  string
	Mode  string
	cause error
}

func (e *ErrUnsupported) Error() string {
	return e.cause.Error()
}

func (e *ErrUnsupported) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ite *model.InvalidTermError
	if errors.As(err, &ite) {
		return &ErrInvalidTerm{Facet: ite.Facet, Field: ite.Field, Reason: ite.Reason, cause: err}
	}
	var ue *model.UnsupportedError
	if errors.As(err, &ue) {
		return &ErrUnsupported{Kind: ue.Kind, Mode: ue.Mode, cause: err}
	}

	return err
}
