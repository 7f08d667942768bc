package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofurlan/roomledger/internal/domain"
)

const tracerName = "github.com/ofurlan/roomledger/internal/adapter/otel"

// TracingReservationRepository wraps a domain.ReservationRepository with
// OpenTelemetry tracing. Each method creates a span with semantic attributes
// and records errors.
type TracingReservationRepository struct {
	next   domain.ReservationRepository
	tracer trace.Tracer
}

// Compile-time check: TracingReservationRepository implements domain.ReservationRepository.
var _ domain.ReservationRepository = (*TracingReservationRepository)(nil)

// NewTracingReservationRepository creates a tracing decorator around the given repository.
func NewTracingReservationRepository(next domain.ReservationRepository) *TracingReservationRepository {
	return &TracingReservationRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// WithTx wraps the whole transaction in a single span, so the enclosed
// repository spans nest under it.
func (r *TracingReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.WithTx")
	defer span.End()

	err := r.next.WithTx(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Create",
		trace.WithAttributes(
			attribute.String("reservation.id", res.ID),
			attribute.String("reservation.room_id", res.RoomID),
			attribute.String("reservation.dates", res.Dates.String()),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.GetByID",
		trace.WithAttributes(attribute.String("reservation.id", id)),
	)
	defer span.End()

	res, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (r *TracingReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.RoomID != "" {
		span.SetAttributes(attribute.String("filter.room_id", filter.RoomID))
	}
	if filter.GuestID != "" {
		span.SetAttributes(attribute.String("filter.guest_id", filter.GuestID))
	}

	reservations, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(reservations)))
	}
	return reservations, err
}

func (r *TracingReservationRepository) ListActiveByRoom(ctx context.Context, roomID, excludeID string) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.ListActiveByRoom",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	reservations, err := r.next.ListActiveByRoom(ctx, roomID, excludeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(reservations)))
	}
	return reservations, err
}

func (r *TracingReservationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("reservation.id", id),
			attribute.String("reservation.status", string(status)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// TracingRoomRepository wraps a domain.RoomRepository with OpenTelemetry tracing.
type TracingRoomRepository struct {
	next   domain.RoomRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*TracingRoomRepository)(nil)

// NewTracingRoomRepository creates a tracing decorator around the given repository.
func NewTracingRoomRepository(next domain.RoomRepository) *TracingRoomRepository {
	return &TracingRoomRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRoomRepository) Create(ctx context.Context, room domain.Room) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.Create",
		trace.WithAttributes(
			attribute.String("room.id", room.ID),
			attribute.String("room.number", room.Number),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, room)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.GetByID",
		trace.WithAttributes(attribute.String("room.id", id)),
	)
	defer span.End()

	room, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return room, err
}

func (r *TracingRoomRepository) GetByNumber(ctx context.Context, number string) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.GetByNumber",
		trace.WithAttributes(attribute.String("room.number", number)),
	)
	defer span.End()

	room, err := r.next.GetByNumber(ctx, number)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return room, err
}

func (r *TracingRoomRepository) List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.Category != "" {
		span.SetAttributes(attribute.String("filter.category", filter.Category))
	}

	rooms, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(rooms)))
	}
	return rooms, err
}

func (r *TracingRoomRepository) UpdateStatus(ctx context.Context, id string, status domain.RoomStatus) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("room.id", id),
			attribute.String("room.status", string(status)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRoomRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.Delete",
		trace.WithAttributes(attribute.String("room.id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
