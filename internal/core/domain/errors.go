package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already registered")
	ErrEmailTaken        = errors.New("email already registered")
	ErrCannotDeleteSelf  = errors.New("cannot delete your own account")
	ErrUserHasOpenLoans  = errors.New("user has open borrow transactions")
	ErrInvalidRole       = errors.New("invalid role. Must be 'user' or 'admin'")
)

// Book errors
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrDuplicateISBN    = errors.New("book with this ISBN already exists")
	ErrOutOfStock       = errors.New("book out of stock")
	ErrBookHasOpenLoans = errors.New("book has open borrow transactions")
)

// Transaction errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNoActiveBorrow      = errors.New("active borrow transaction not found")
	ErrDuplicateRequest    = errors.New("you already have a pending or active borrow request for this book")
)

// StateTransitionError reports an approval attempted from the wrong
// source status. It carries the current status for diagnostics.
type StateTransitionError struct {
	Expected Status
	Current  Status
}

func (e *StateTransitionError) Error() string {
	switch e.Expected {
	case StatusPending:
		return fmt.Sprintf("transaction is not pending. Current status: %s", e.Current)
	case StatusPendingReturn:
		return fmt.Sprintf("transaction is not pending return. Current status: %s", e.Current)
	default:
		return fmt.Sprintf("transaction is not %s. Current status: %s", e.Expected, e.Current)
	}
}

// NewStateTransitionError builds a StateTransitionError for a
// transition expected to start from expected but found current.
func NewStateTransitionError(expected, current Status) error {
	return &StateTransitionError{Expected: expected, Current: current}
}
