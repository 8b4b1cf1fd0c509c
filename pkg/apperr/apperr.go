package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure category reported to callers.
type Kind string

const (
	InvalidReference        Kind = "invalid_reference"
	InvalidQuantity         Kind = "invalid_quantity"
	InvalidPrice            Kind = "invalid_price"
	ItemNotFound            Kind = "item_not_found"
	PersistenceUnavailable  Kind = "persistence_unavailable"
	AddressValidationFailed Kind = "address_validation_failed"
	AddressNotFound         Kind = "address_not_found"
	EmptyCart               Kind = "empty_cart"
	Unauthorized            Kind = "unauthorized"
	Conflict                Kind = "conflict"
)

// Error is a tagged failure. Fields lists the offending input fields, if any.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so sentinel-style checks work:
//
//	errors.Is(err, &apperr.Error{Kind: apperr.ItemNotFound})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Unavailable converts a collaborator failure into PersistenceUnavailable,
// leaving already-tagged errors untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return Wrap(PersistenceUnavailable, op, err)
}
