package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure so the HTTP layer can pick a status
// code without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidQuantity
	KindOutOfStock
	KindExceedsStock
	KindInsufficientStock
	KindEmptyCart
	KindMissingCartID
	KindInvalidShipping
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidQuantity:
		return "invalid_quantity"
	case KindOutOfStock:
		return "out_of_stock"
	case KindExceedsStock:
		return "exceeds_stock"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindEmptyCart:
		return "empty_cart"
	case KindMissingCartID:
		return "missing_cart_id"
	case KindInvalidShipping:
		return "invalid_shipping"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is returned by every service operation that rejects a request.
// MaxQty is set for stock rejections and reports the live stock at the time
// of the check.
type Error struct {
	Kind    ErrorKind
	Message string
	MaxQty  *int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable is true only for storage failures; business rejections will fail
// the same way on retry.
func (e *Error) Retryable() bool { return e.Kind == KindPersistence }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func stockError(kind ErrorKind, msg string, maxQty int) *Error {
	return &Error{Kind: kind, Message: msg, MaxQty: &maxQty}
}

func persistenceError(msg string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, cause: cause}
}

// KindOf returns the kind of a service error, or 0 for anything else.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// asServiceError leaves service errors untouched and wraps everything else as
// a persistence failure. Used on the error returned by a transaction, where
// business rejections and driver errors are mixed.
func asServiceError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return persistenceError(msg, err)
}
