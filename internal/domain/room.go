package domain

import "time"

// RoomStatus is the operational state of a room, independent of any single
// reservation. Check-in/check-out flip it between available and occupied;
// maintenance is administrator-set.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room is a bookable physical unit.
type Room struct {
	ID         string
	Number     string // human-facing label, unique
	Category   string
	PriceCents int64
	Status     RoomStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRoom creates a room in the "available" state.
func NewRoom(id, number, category string, priceCents int64) Room {
	now := time.Now().UTC()
	return Room{
		ID:         id,
		Number:     number,
		Category:   category,
		PriceCents: priceCents,
		Status:     RoomAvailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
