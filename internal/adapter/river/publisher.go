package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/ofurlan/roomledger/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a reservation event
// asynchronously. River serializes this as JSON into its job queue table. It
// includes a snapshot of the reservation at the time the event was published,
// so the worker never needs to query the database.
type EventJobArgs struct {
	Event         string `json:"event"`
	ReservationID string `json:"reservation_id"`
	GuestID       string `json:"guest_id"`
	RoomID        string `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Status        string `json:"status"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "reservation.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a reservation lifecycle event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, res domain.Reservation) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:         string(event),
		ReservationID: res.ID,
		GuestID:       res.GuestID,
		RoomID:        res.RoomID,
		RoomNumber:    res.RoomNumber,
		CheckIn:       res.Dates.CheckIn().Format(domain.DateFormat),
		CheckOut:      res.Dates.CheckOut().Format(domain.DateFormat),
		Status:        string(res.Status),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
