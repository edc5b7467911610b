package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError names the offending field. It matches ErrInvalidRequest.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidRequest }

// TransitionError reports a rejected status or payment move.
type TransitionError struct {
	OrderID int64
	From    string
	To      string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e TransitionError) Unwrap() error { return ErrInvalidTransition }
