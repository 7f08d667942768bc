package domain

import "time"

// Status represents the lifecycle state of a reservation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// Event represents an action that triggers a state transition.
type Event string

const (
	// EventCreate is published when a reservation is created. It is not a
	// transition: reservations are born pending.
	EventCreate Event = "create"

	EventConfirm  Event = "confirm"
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"
	EventCancel   Event = "cancel"
)

// Transition defines a valid state change: an event moves a reservation from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the reservation lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventConfirm, Src: StatusPending, Dst: StatusConfirmed},
	{Event: EventCheckIn, Src: StatusConfirmed, Dst: StatusCheckedIn},
	{Event: EventCheckOut, Src: StatusCheckedIn, Dst: StatusCheckedOut},
	{Event: EventCancel, Src: StatusPending, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusConfirmed, Dst: StatusCancelled},
}

// BlockingStatuses are the statuses that make a reservation count against
// room availability. Cancelled and checked-out reservations release their
// dates.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

// Reservation is one room held for one guest over one date range.
type Reservation struct {
	ID      string
	GuestID string
	RoomID  string
	Dates   DateRange
	Status  Status

	// RoomNumber is read-path detail joined from the room, not stored on
	// the reservation row.
	RoomNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation creates a reservation in the initial "pending" state,
// owned by the guest that requested it.
func NewReservation(id, guestID, roomID string, dates DateRange) Reservation {
	now := time.Now().UTC()
	return Reservation{
		ID:        id,
		GuestID:   guestID,
		RoomID:    roomID,
		Dates:     dates,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
