package domain

import (
	"errors"
	"fmt"
)

// Stable machine-readable error codes. Callers use these to pick an HTTP
// status or retry strategy; the strings never change.
const (
	CodeInvalidDateRange  = "invalid_date_range"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeForbidden         = "forbidden"
	CodeInternal          = "internal"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// DateRangeError is returned when a requested date range is malformed or
// inverted. It is a validation failure, never an availability answer.
type DateRangeError struct {
	CheckIn  string
	CheckOut string
	Reason   string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s): %s", e.CheckIn, e.CheckOut, e.Reason)
}

// ConflictError is returned when the requested dates are unavailable for
// the room.
type ConflictError struct {
	RoomID string
	Dates  DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %q is not available for %s", e.RoomID, e.Dates)
}

// TransitionError is returned when a state transition is not allowed.
// Current carries the status the reservation was in when the transition
// was attempted.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// ForbiddenError is returned when an actor lacks ownership or privilege for
// the requested operation.
type ForbiddenError struct {
	ActorID       string
	ReservationID string
}

func (e *ForbiddenError) Error() string {
	if e.ReservationID == "" {
		return fmt.Sprintf("actor %q lacks privilege for this operation", e.ActorID)
	}
	return fmt.Sprintf("actor %q may not access reservation %q", e.ActorID, e.ReservationID)
}

// RoomNumberConflictError is returned when a room number is already in use.
type RoomNumberConflictError struct {
	Number string
}

func (e *RoomNumberConflictError) Error() string {
	return fmt.Sprintf("room number %q is already in use", e.Number)
}

// Code maps an error to its stable machine-readable code. Anything the
// domain does not recognize is an internal failure.
func Code(err error) string {
	var (
		dateErr       *DateRangeError
		conflictErr   *ConflictError
		transitionErr *TransitionError
		forbiddenErr  *ForbiddenError
		numberErr     *RoomNumberConflictError
	)

	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrReservationNotFound):
		return CodeNotFound
	case errors.As(err, &dateErr):
		return CodeInvalidDateRange
	case errors.As(err, &conflictErr), errors.As(err, &numberErr):
		return CodeConflict
	case errors.As(err, &transitionErr):
		return CodeInvalidTransition
	case errors.As(err, &forbiddenErr):
		return CodeForbidden
	default:
		return CodeInternal
	}
}
