package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so transports can map them
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindValidation        ErrorKind = "validation_error"
	KindInvalidQuantity   ErrorKind = "invalid_quantity"
	KindUnavailable       ErrorKind = "unavailable"
	KindEmptyCart         ErrorKind = "empty_cart"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindNoRestaurant      ErrorKind = "no_restaurant"
)

// Error is a domain failure safe to show to the caller. Field names the
// offending input when there is one.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// KindOf returns the kind of the first domain error in err's chain, or ""
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func InvalidQuantity(field string) *Error {
	return &Error{Kind: KindInvalidQuantity, Field: field, Message: fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity)}
}

func Unavailable(field string) *Error {
	return &Error{Kind: KindUnavailable, Field: field, Message: "dish is not available"}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot move from %s to %s", from, to)}
}

func PermissionDenied() *Error {
	return &Error{Kind: KindPermissionDenied, Message: "not allowed to access this resource"}
}

func NoRestaurant() *Error {
	return &Error{Kind: KindNoRestaurant, Message: "no restaurant is associated with this account"}
}

// MaxQuantity bounds a single cart line or order item
const MaxQuantity = 999

// ValidateQuantity rejects counts outside 1..MaxQuantity
func ValidateQuantity(field string, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return InvalidQuantity(field)
	}
	return nil
}
