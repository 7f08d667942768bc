package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ofurlan/roomledger/internal/domain"
)

// ReservationService orchestrates the reservation lifecycle: creation with
// an atomic availability check, and the confirm/check-in/check-out/cancel
// transitions.
type ReservationService struct {
	reservations domain.ReservationRepository
	rooms        domain.RoomRepository
	publisher    domain.EventPublisher
	validator    domain.TransitionValidator
}

// NewReservationService creates a service with the given adapters.
func NewReservationService(
	reservations domain.ReservationRepository,
	rooms domain.RoomRepository,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		publisher:    publisher,
		validator:    validator,
	}
}

// Create books a room for the actor over the given dates. The availability
// check and the insert run inside one store transaction, so two concurrent
// creates for the same room and overlapping dates cannot both succeed.
func (s *ReservationService) Create(ctx context.Context, actor domain.Actor, roomID string, dates domain.DateRange) (domain.Reservation, error) {
	id, err := generateID()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("generating reservation id: %w", err)
	}

	var created domain.Reservation
	err = s.reservations.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.rooms.GetByID(txCtx, roomID)
		if err != nil {
			return err
		}

		available, err := s.isAvailable(txCtx, room.ID, dates, "")
		if err != nil {
			return err
		}
		if !available {
			return &domain.ConflictError{RoomID: room.ID, Dates: dates}
		}

		res := domain.NewReservation(id, actor.ID, room.ID, dates)
		res.RoomNumber = room.Number

		if err := s.reservations.Create(txCtx, res); err != nil {
			return fmt.Errorf("creating reservation: %w", err)
		}

		created = res
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "reservation create rejected",
			"actor_id", actor.ID, "room_id", roomID, "dates", dates.String(), "error", err)
		return domain.Reservation{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventCreate, created); err != nil {
		return domain.Reservation{}, fmt.Errorf("publishing creation event: %w", err)
	}

	return created, nil
}

// IsAvailable reports whether the room is free over the given dates,
// optionally ignoring one reservation (for update-in-place checks). It is a
// decision over a snapshot; Create repeats it inside its transaction.
func (s *ReservationService) IsAvailable(ctx context.Context, roomID string, dates domain.DateRange, excludeID string) (bool, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return false, err
	}
	return s.isAvailable(ctx, roomID, dates, excludeID)
}

func (s *ReservationService) isAvailable(ctx context.Context, roomID string, dates domain.DateRange, excludeID string) (bool, error) {
	existing, err := s.reservations.ListActiveByRoom(ctx, roomID, excludeID)
	if err != nil {
		return false, fmt.Errorf("listing active reservations: %w", err)
	}

	for _, res := range existing {
		if dates.Overlaps(res.Dates) {
			return false, nil
		}
	}
	return true, nil
}

// Confirm moves a pending reservation to confirmed.
func (s *ReservationService) Confirm(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, id, domain.EventConfirm, nil)
}

// CheckIn moves a confirmed reservation to checked_in and marks the room
// occupied, in the same transaction.
func (s *ReservationService) CheckIn(ctx context.Context, id string) (domain.Reservation, error) {
	occupied := domain.RoomOccupied
	return s.transition(ctx, id, domain.EventCheckIn, &occupied)
}

// CheckOut moves a checked-in reservation to checked_out and releases the
// room, in the same transaction.
func (s *ReservationService) CheckOut(ctx context.Context, id string) (domain.Reservation, error) {
	available := domain.RoomAvailable
	return s.transition(ctx, id, domain.EventCheckOut, &available)
}

// Cancel moves a pending or confirmed reservation to cancelled. Only the
// owning guest or a privileged actor may cancel.
func (s *ReservationService) Cancel(ctx context.Context, actor domain.Actor, id string) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.reservations.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.reservations.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if !actor.CanAccess(res.GuestID) {
			return &domain.ForbiddenError{ActorID: actor.ID, ReservationID: id}
		}

		next, err := s.validator.Apply(txCtx, res.Status, domain.EventCancel)
		if err != nil {
			return err
		}

		if err := s.reservations.UpdateStatus(txCtx, id, next); err != nil {
			return fmt.Errorf("updating reservation status: %w", err)
		}

		res.Status = next
		updated = res
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "reservation cancel rejected",
			"actor_id", actor.ID, "reservation_id", id, "error", err)
		return domain.Reservation{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventCancel, updated); err != nil {
		return domain.Reservation{}, fmt.Errorf("publishing cancel event: %w", err)
	}

	return updated, nil
}

// GetByID returns a reservation. Non-privileged actors may only read their
// own reservations.
func (s *ReservationService) GetByID(ctx context.Context, actor domain.Actor, id string) (domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}

	if !actor.CanAccess(res.GuestID) {
		return domain.Reservation{}, &domain.ForbiddenError{ActorID: actor.ID, ReservationID: id}
	}

	return res, nil
}

// List returns reservations matching the filter, most recent first.
// Non-privileged actors are scoped to reservations they own regardless of
// the guest filter they pass.
func (s *ReservationService) List(ctx context.Context, actor domain.Actor, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	if !actor.Privileged {
		filter.GuestID = actor.ID
	}
	return s.reservations.List(ctx, filter)
}

// transition loads the reservation, validates the event against its current
// status, and writes the new status as a single atomic unit. When the event
// demands a room status flip, that write joins the same transaction.
func (s *ReservationService) transition(ctx context.Context, id string, event domain.Event, roomStatus *domain.RoomStatus) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.reservations.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.reservations.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		next, err := s.validator.Apply(txCtx, res.Status, event)
		if err != nil {
			return err
		}

		if err := s.reservations.UpdateStatus(txCtx, id, next); err != nil {
			return fmt.Errorf("updating reservation status: %w", err)
		}

		if roomStatus != nil {
			if err := s.rooms.UpdateStatus(txCtx, res.RoomID, *roomStatus); err != nil {
				return fmt.Errorf("updating room status: %w", err)
			}
		}

		res.Status = next
		updated = res
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "reservation transition rejected",
			"reservation_id", id, "event", string(event), "error", err)
		return domain.Reservation{}, err
	}

	if err := s.publisher.Publish(ctx, event, updated); err != nil {
		return domain.Reservation{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return updated, nil
}
