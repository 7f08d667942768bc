package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ofurlan/roomledger/internal/app"
	"github.com/ofurlan/roomledger/internal/domain"
)

// ActorParams identifies the caller. Guests pass their own ID; staff add the
// staff role to act across guests. Authentication itself is expected to
// happen upstream, e.g. at an API gateway.
type ActorParams struct {
	ActorID   string `header:"X-Actor-ID" doc:"Caller identity"`
	ActorRole string `header:"X-Actor-Role" required:"false" doc:"Caller role, \"staff\" for privileged access"`
}

func (p ActorParams) actor() (domain.Actor, error) {
	if p.ActorID == "" {
		return domain.Actor{}, huma.Error401Unauthorized("missing X-Actor-ID header")
	}
	return domain.Actor{ID: p.ActorID, Privileged: p.ActorRole == "staff"}, nil
}

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	Number     string `json:"number" doc:"Human-facing room number"`
	Category   string `json:"category" doc:"Room category"`
	PriceCents int64  `json:"price_cents" doc:"Nightly price in cents"`
	Status     string `json:"status" doc:"Operational status"`
	CreatedAt  string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt  string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	return RoomResponse{
		ID:         r.ID,
		Number:     r.Number,
		Category:   r.Category,
		PriceCents: r.PriceCents,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ReservationResponse is the API representation of a reservation.
type ReservationResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	GuestID    string `json:"guest_id" doc:"Owning guest"`
	RoomID     string `json:"room_id" doc:"Reserved room"`
	RoomNumber string `json:"room_number" doc:"Human-facing room number"`
	CheckIn    string `json:"check_in" doc:"First night (inclusive, YYYY-MM-DD)"`
	CheckOut   string `json:"check_out" doc:"Departure day (exclusive, YYYY-MM-DD)"`
	Nights     int    `json:"nights" doc:"Number of nights"`
	Status     string `json:"status" doc:"Lifecycle state"`
	CreatedAt  string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt  string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toReservationResponse(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		GuestID:    r.GuestID,
		RoomID:     r.RoomID,
		RoomNumber: r.RoomNumber,
		CheckIn:    r.Dates.CheckIn().Format(domain.DateFormat),
		CheckOut:   r.Dates.CheckOut().Format(domain.DateFormat),
		Nights:     r.Dates.Nights(),
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// --- Rooms ---

type CreateRoomInput struct {
	ActorParams
	Body struct {
		Number     string `json:"number" minLength:"1" maxLength:"20" doc:"Human-facing room number"`
		Category   string `json:"category" minLength:"1" maxLength:"50" doc:"Room category, e.g. \"double\""`
		PriceCents int64  `json:"price_cents" minimum:"0" doc:"Nightly price in cents"`
	}
}

type CreateRoomOutput struct {
	Body RoomResponse
}

type GetRoomInput struct {
	ID string `path:"id" doc:"Room ID"`
}

type GetRoomOutput struct {
	Body RoomResponse
}

type ListRoomsInput struct {
	Status   string `query:"status" required:"false" doc:"Filter by status"`
	Category string `query:"category" required:"false" doc:"Filter by category"`
	Limit    int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListRoomsOutput struct {
	Body []RoomResponse
}

type SetRoomStatusInput struct {
	ActorParams
	ID   string `path:"id" doc:"Room ID"`
	Body struct {
		Status string `json:"status" enum:"available,occupied,maintenance" doc:"New operational status"`
	}
}

type SetRoomStatusOutput struct {
	Body RoomResponse
}

type DeleteRoomInput struct {
	ActorParams
	ID string `path:"id" doc:"Room ID"`
}

type DeleteRoomOutput struct{}

type AvailabilityInput struct {
	ID       string `path:"id" doc:"Room ID"`
	CheckIn  string `query:"check_in" doc:"First night (inclusive, YYYY-MM-DD)"`
	CheckOut string `query:"check_out" doc:"Departure day (exclusive, YYYY-MM-DD)"`
	Exclude  string `query:"exclude" required:"false" doc:"Reservation ID to ignore"`
}

type AvailabilityOutput struct {
	Body struct {
		RoomID    string `json:"room_id" doc:"Room ID"`
		CheckIn   string `json:"check_in" doc:"First night (inclusive)"`
		CheckOut  string `json:"check_out" doc:"Departure day (exclusive)"`
		Available bool   `json:"available" doc:"Whether the room is free over the range"`
	}
}

// --- Reservations ---

type CreateReservationInput struct {
	ActorParams
	Body struct {
		RoomID   string `json:"room_id" minLength:"1" doc:"Room to reserve"`
		CheckIn  string `json:"check_in" doc:"First night (inclusive, YYYY-MM-DD)"`
		CheckOut string `json:"check_out" doc:"Departure day (exclusive, YYYY-MM-DD)"`
	}
}

type CreateReservationOutput struct {
	Body ReservationResponse
}

type GetReservationInput struct {
	ActorParams
	ID string `path:"id" doc:"Reservation ID"`
}

type GetReservationOutput struct {
	Body ReservationResponse
}

type ListReservationsInput struct {
	ActorParams
	Status  string `query:"status" required:"false" doc:"Filter by status"`
	RoomID  string `query:"room_id" required:"false" doc:"Filter by room"`
	GuestID string `query:"guest_id" required:"false" doc:"Filter by guest (staff only; guests are always scoped to themselves)"`
	From    string `query:"from" required:"false" doc:"Match stays intersecting [from, to) (YYYY-MM-DD)"`
	To      string `query:"to" required:"false" doc:"Match stays intersecting [from, to) (YYYY-MM-DD)"`
	Limit   int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset  int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListReservationsOutput struct {
	Body []ReservationResponse
}

type TransitionInput struct {
	ActorParams
	ID string `path:"id" doc:"Reservation ID"`
}

type TransitionOutput struct {
	Body ReservationResponse
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, reservations *app.ReservationService, rooms *app.RoomService) {
	registerRooms(api, reservations, rooms)
	registerReservations(api, reservations)
}

func registerRooms(api huma.API, reservations *app.ReservationService, rooms *app.RoomService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-room",
		Method:        http.MethodPost,
		Path:          "/api/v1/rooms",
		Summary:       "Register a new room",
		Tags:          []string{"Rooms"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateRoomInput) (*CreateRoomOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}
		room, err := rooms.Create(ctx, actor, input.Body.Number, input.Body.Category, input.Body.PriceCents)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &CreateRoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Get a room by ID",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *GetRoomInput) (*GetRoomOutput, error) {
		room, err := rooms.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &GetRoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms",
		Summary:     "List rooms",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *ListRoomsInput) (*ListRoomsOutput, error) {
		filter := domain.RoomFilter{
			Category: input.Category,
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.Status != "" {
			s := domain.RoomStatus(input.Status)
			filter.Status = &s
		}

		list, err := rooms.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]RoomResponse, len(list))
		for i, room := range list {
			resp[i] = toRoomResponse(room)
		}
		return &ListRoomsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-room-status",
		Method:      http.MethodPatch,
		Path:        "/api/v1/rooms/{id}/status",
		Summary:     "Set a room's operational status",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *SetRoomStatusInput) (*SetRoomStatusOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}
		room, err := rooms.SetStatus(ctx, actor, input.ID, domain.RoomStatus(input.Body.Status))
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SetRoomStatusOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-room",
		Method:        http.MethodDelete,
		Path:          "/api/v1/rooms/{id}",
		Summary:       "Delete a room",
		Tags:          []string{"Rooms"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteRoomInput) (*DeleteRoomOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}
		if err := rooms.Delete(ctx, actor, input.ID); err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &DeleteRoomOutput{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "room-availability",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}/availability",
		Summary:     "Check whether a room is free over a date range",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *AvailabilityInput) (*AvailabilityOutput, error) {
		dates, err := domain.ParseDateRange(input.CheckIn, input.CheckOut)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		available, err := reservations.IsAvailable(ctx, input.ID, dates, input.Exclude)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		out := &AvailabilityOutput{}
		out.Body.RoomID = input.ID
		out.Body.CheckIn = dates.CheckIn().Format(domain.DateFormat)
		out.Body.CheckOut = dates.CheckOut().Format(domain.DateFormat)
		out.Body.Available = available
		return out, nil
	})
}

func registerReservations(api huma.API, reservations *app.ReservationService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-reservation",
		Method:        http.MethodPost,
		Path:          "/api/v1/reservations",
		Summary:       "Create a reservation",
		Tags:          []string{"Reservations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateReservationInput) (*CreateReservationOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}
		dates, err := domain.ParseDateRange(input.Body.CheckIn, input.Body.CheckOut)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		res, err := reservations.Create(ctx, actor, input.Body.RoomID, dates)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &CreateReservationOutput{Body: toReservationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-reservation",
		Method:      http.MethodGet,
		Path:        "/api/v1/reservations/{id}",
		Summary:     "Get a reservation by ID",
		Tags:        []string{"Reservations"},
	}, func(ctx context.Context, input *GetReservationInput) (*GetReservationOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}
		res, err := reservations.GetByID(ctx, actor, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &GetReservationOutput{Body: toReservationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reservations",
		Method:      http.MethodGet,
		Path:        "/api/v1/reservations",
		Summary:     "List reservations",
		Tags:        []string{"Reservations"},
	}, func(ctx context.Context, input *ListReservationsInput) (*ListReservationsOutput, error) {
		actor, err := input.actor()
		if err != nil {
			return nil, err
		}

		filter := domain.ReservationFilter{
			RoomID:  input.RoomID,
			GuestID: input.GuestID,
			Limit:   input.Limit,
			Offset:  input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}
		if input.From != "" || input.To != "" {
			dates, err := domain.ParseDateRange(input.From, input.To)
			if err != nil {
				return nil, toHumaError(ctx, err)
			}
			filter.Dates = &dates
		}

		list, err := reservations.List(ctx, actor, filter)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]ReservationResponse, len(list))
		for i, res := range list {
			resp[i] = toReservationResponse(res)
		}
		return &ListReservationsOutput{Body: resp}, nil
	})

	transitions := []struct {
		operationID string
		path        string
		summary     string
		call        func(ctx context.Context, actor domain.Actor, id string) (domain.Reservation, error)
	}{
		{
			operationID: "confirm-reservation",
			path:        "/api/v1/reservations/{id}/confirm",
			summary:     "Confirm a pending reservation",
			call: func(ctx context.Context, _ domain.Actor, id string) (domain.Reservation, error) {
				return reservations.Confirm(ctx, id)
			},
		},
		{
			operationID: "check-in-reservation",
			path:        "/api/v1/reservations/{id}/check-in",
			summary:     "Check a guest in",
			call: func(ctx context.Context, _ domain.Actor, id string) (domain.Reservation, error) {
				return reservations.CheckIn(ctx, id)
			},
		},
		{
			operationID: "check-out-reservation",
			path:        "/api/v1/reservations/{id}/check-out",
			summary:     "Check a guest out",
			call: func(ctx context.Context, _ domain.Actor, id string) (domain.Reservation, error) {
				return reservations.CheckOut(ctx, id)
			},
		},
		{
			operationID: "cancel-reservation",
			path:        "/api/v1/reservations/{id}/cancel",
			summary:     "Cancel a reservation",
			call:        reservations.Cancel,
		},
	}

	for _, tr := range transitions {
		huma.Register(api, huma.Operation{
			OperationID: tr.operationID,
			Method:      http.MethodPost,
			Path:        tr.path,
			Summary:     tr.summary,
			Tags:        []string{"Reservations"},
		}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
			actor, err := input.actor()
			if err != nil {
				return nil, err
			}
			res, err := tr.call(ctx, actor, input.ID)
			if err != nil {
				return nil, toHumaError(ctx, err)
			}
			return &TransitionOutput{Body: toReservationResponse(res)}, nil
		})
	}
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrRoomNotFound) {
		return huma.Error404NotFound("room not found")
	}
	if errors.Is(err, domain.ErrReservationNotFound) {
		return huma.Error404NotFound("reservation not found")
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var numberErr *domain.RoomNumberConflictError
	if errors.As(err, &numberErr) {
		return huma.Error409Conflict(numberErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var rangeErr *domain.DateRangeError
	if errors.As(err, &rangeErr) {
		return huma.Error422UnprocessableEntity(rangeErr.Error())
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return huma.Error403Forbidden(forbiddenErr.Error())
	}

	slog.ErrorContext(ctx, "unhandled error", "error", err, "code", domain.Code(err))
	return huma.Error500InternalServerError("internal server error")
}
