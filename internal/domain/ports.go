package domain

import "context"

// RoomRepository defines the persistence contract for rooms.
type RoomRepository interface {
	Create(ctx context.Context, room Room) error
	GetByID(ctx context.Context, id string) (Room, error)
	GetByNumber(ctx context.Context, number string) (Room, error)
	List(ctx context.Context, filter RoomFilter) ([]Room, error)
	UpdateStatus(ctx context.Context, id string, status RoomStatus) error
	Delete(ctx context.Context, id string) error
}

// RoomFilter holds optional criteria for listing rooms. Empty values mean
// "unset": they add no constraint.
type RoomFilter struct {
	Status   *RoomStatus
	Category string
	Limit    int
	Offset   int
}

// ReservationRepository defines the persistence contract for reservations.
//
// WithTx runs fn inside a single store transaction. Every repository call
// made with the context fn receives joins that transaction, including
// RoomRepository calls against the same store. An error from fn rolls the
// whole unit back. This is how "check availability then insert" and "flip
// reservation and room together" stay atomic.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, reservation Reservation) error
	GetByID(ctx context.Context, id string) (Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	// ListActiveByRoom returns the reservations for a room whose status
	// still blocks availability (see BlockingStatuses), excluding
	// excludeID when non-empty.
	ListActiveByRoom(ctx context.Context, roomID, excludeID string) ([]Reservation, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// ReservationFilter holds optional criteria for listing reservations.
// Criteria compose conjunctively; empty values mean "unset". Dates matches
// any reservation whose range intersects the given range.
type ReservationFilter struct {
	Status  *Status
	RoomID  string
	GuestID string
	Dates   *DateRange
	Limit   int
	Offset  int
}

// EventPublisher defines the contract for emitting reservation lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, reservation Reservation) error
}

// TransitionValidator checks a lifecycle event against the current status
// and yields the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
