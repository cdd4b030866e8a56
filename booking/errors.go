package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("reservation not found")

// ValidationError is bad input the caller can fix locally.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError means the requested range is taken; the caller has to pick
// other dates.
type ConflictError struct {
	UnitID   uint
	CheckIn  time.Time
	CheckOut time.Time
	With     uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("studio %d is not available from %s to %s",
		e.UnitID, e.CheckIn.Format(DateLayout), e.CheckOut.Format(DateLayout))
}

// RepositoryError is a failed store operation. No state change is assumed.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// NotificationError is only ever logged.
type NotificationError struct {
	ID  uuid.UUID
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify reservation %s: %v", e.ID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RepositoryError
	if errors.As(err, &re) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}
