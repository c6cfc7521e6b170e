package apperrors

import "fmt"

// FetchError is returned when a catalog or listing page could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: got status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	_, ok := target.(*FetchError)
	return ok
}

// ParseError names a markup node or structured field that was absent or malformed.
type ParseError struct {
	Node   string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse %s: %s", e.Node, e.Detail)
	}
	return fmt.Sprintf("parse %s: node not found", e.Node)
}

func (e *ParseError) Is(target error) bool {
	_, ok := target.(*ParseError)
	return ok
}

// NewMissingNodeError reports a required node that is not present in the markup.
func NewMissingNodeError(node string) *ParseError {
	return &ParseError{Node: node}
}

// UnknownFilmError is returned when a listing links to a film absent from the catalog.
type UnknownFilmError struct {
	Path string
}

func (e *UnknownFilmError) Error() string {
	return fmt.Sprintf("listing references unknown film %q", e.Path)
}

func (e *UnknownFilmError) Is(target error) bool {
	_, ok := target.(*UnknownFilmError)
	return ok
}

// ExtractionError ties a fetch, parse or referential failure to a cinema.
type ExtractionError struct {
	Cinema string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cinema %q: %v", e.Cinema, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	_, ok := target.(*ExtractionError)
	return ok
}

// PersistenceError wraps schema creation, insert and query failures.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	_, ok := target.(*PersistenceError)
	return ok
}

// InputError is a usage error in a user supplied filter.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Is(target error) bool {
	_, ok := target.(*InputError)
	return ok
}

// NotFoundError represents an error when a requested resource is not found.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}
