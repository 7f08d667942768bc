package app

import (
	"context"
	"fmt"

	"github.com/ofurlan/roomledger/internal/domain"
)

// RoomService handles room administration. Every mutation requires a
// privileged actor; reads are open to any caller.
type RoomService struct {
	rooms domain.RoomRepository
}

// NewRoomService creates a room administration service.
func NewRoomService(rooms domain.RoomRepository) *RoomService {
	return &RoomService{rooms: rooms}
}

// Create registers a new room. The store enforces number uniqueness.
func (s *RoomService) Create(ctx context.Context, actor domain.Actor, number, category string, priceCents int64) (domain.Room, error) {
	if !actor.Privileged {
		return domain.Room{}, &domain.ForbiddenError{ActorID: actor.ID}
	}

	id, err := generateID()
	if err != nil {
		return domain.Room{}, fmt.Errorf("generating room id: %w", err)
	}

	room := domain.NewRoom(id, number, category, priceCents)

	if err := s.rooms.Create(ctx, room); err != nil {
		return domain.Room{}, err
	}

	return room, nil
}

// GetByID returns a room by its unique identifier.
func (s *RoomService) GetByID(ctx context.Context, id string) (domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// List returns rooms matching the given filter.
func (s *RoomService) List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error) {
	return s.rooms.List(ctx, filter)
}

// SetStatus sets a room's operational status directly, e.g. taking a room
// into maintenance. Lifecycle-driven flips (occupied on check-in, available
// on check-out) belong to the ReservationService instead.
func (s *RoomService) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.RoomStatus) (domain.Room, error) {
	if !actor.Privileged {
		return domain.Room{}, &domain.ForbiddenError{ActorID: actor.ID}
	}

	if err := s.rooms.UpdateStatus(ctx, id, status); err != nil {
		return domain.Room{}, err
	}

	return s.rooms.GetByID(ctx, id)
}

// Delete removes a room. Its reservations are cascaded away by the store.
func (s *RoomService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.Privileged {
		return &domain.ForbiddenError{ActorID: actor.ID}
	}
	return s.rooms.Delete(ctx, id)
}
