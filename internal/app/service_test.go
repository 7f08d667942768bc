package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ofurlan/roomledger/internal/adapter/fsm"
	"github.com/ofurlan/roomledger/internal/adapter/sqlite"
	"github.com/ofurlan/roomledger/internal/app"
	"github.com/ofurlan/roomledger/internal/domain"
)

// --- Mocks ---

type mockReservationRepo struct {
	reservations map[string]domain.Reservation
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{reservations: make(map[string]domain.Reservation)}
}

func (m *mockReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockReservationRepo) Create(_ context.Context, res domain.Reservation) error {
	m.reservations[res.ID] = res
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (domain.Reservation, error) {
	res, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (m *mockReservationRepo) List(_ context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range m.reservations {
		if filter.GuestID != "" && res.GuestID != filter.GuestID {
			continue
		}
		if filter.RoomID != "" && res.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if filter.Dates != nil && !res.Dates.Overlaps(*filter.Dates) {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *mockReservationRepo) ListActiveByRoom(_ context.Context, roomID, excludeID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range m.reservations {
		if res.RoomID != roomID || res.ID == excludeID {
			continue
		}
		for _, s := range domain.BlockingStatuses {
			if res.Status == s {
				out = append(out, res)
				break
			}
		}
	}
	return out, nil
}

func (m *mockReservationRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	res, ok := m.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = status
	m.reservations[id] = res
	return nil
}

type mockRoomRepo struct {
	rooms map[string]domain.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]domain.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room domain.Room) error {
	m.rooms[room.ID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (domain.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (m *mockRoomRepo) GetByNumber(_ context.Context, number string) (domain.Room, error) {
	for _, room := range m.rooms {
		if room.Number == number {
			return room, nil
		}
	}
	return domain.Room{}, domain.ErrRoomNotFound
}

func (m *mockRoomRepo) List(_ context.Context, _ domain.RoomFilter) ([]domain.Room, error) {
	out := make([]domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (m *mockRoomRepo) UpdateStatus(_ context.Context, id string, status domain.RoomStatus) error {
	room, ok := m.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Status = status
	m.rooms[id] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	event       domain.Event
	reservation domain.Reservation
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, res domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{event: e, reservation: res})
	return nil
}

func (m *mockPublisher) published() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

// --- Fixtures ---

func mustRange(t *testing.T, checkIn, checkOut string) domain.DateRange {
	t.Helper()
	r, err := domain.ParseDateRange(checkIn, checkOut)
	if err != nil {
		t.Fatalf("ParseDateRange(%q, %q) failed: %v", checkIn, checkOut, err)
	}
	return r
}

var (
	guest = domain.Actor{ID: "guest-1"}
	other = domain.Actor{ID: "guest-2"}
	admin = domain.Actor{ID: "staff-1", Privileged: true}
)

func newMockService(t *testing.T) (*app.ReservationService, *mockReservationRepo, *mockRoomRepo, *mockPublisher) {
	t.Helper()
	reservations := newMockReservationRepo()
	rooms := newMockRoomRepo()
	pub := &mockPublisher{}
	svc := app.NewReservationService(reservations, rooms, pub, fsm.New())

	rooms.rooms["room-1"] = domain.NewRoom("room-1", "101", "double", 12000)
	return svc, reservations, rooms, pub
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	svc, reservations, _, pub := newMockService(t)

	dates := mustRange(t, "2024-06-10", "2024-06-15")
	res, err := svc.Create(context.Background(), guest, "room-1", dates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", res.Status, domain.StatusPending)
	}
	if res.GuestID != "guest-1" {
		t.Errorf("GuestID = %q, want %q", res.GuestID, "guest-1")
	}
	if res.RoomNumber != "101" {
		t.Errorf("RoomNumber = %q, want %q", res.RoomNumber, "101")
	}
	if len(res.ID) == 0 {
		t.Error("ID should not be empty")
	}

	// Verify it was persisted.
	if _, err := reservations.GetByID(context.Background(), res.ID); err != nil {
		t.Fatalf("reservation not found in repo: %v", err)
	}

	// Verify event was published.
	events := pub.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].event != domain.EventCreate {
		t.Errorf("event = %q, want %q", events[0].event, domain.EventCreate)
	}
}

func TestCreate_RoomNotFound(t *testing.T) {
	svc, _, _, _ := newMockService(t)

	_, err := svc.Create(context.Background(), guest, "nonexistent", mustRange(t, "2024-06-10", "2024-06-15"))
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCreate_Conflict(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-01-10", "2024-01-15")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.Create(ctx, other, "room-1", mustRange(t, "2024-01-12", "2024-01-20"))
	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictErr.RoomID != "room-1" {
		t.Errorf("RoomID = %q, want %q", conflictErr.RoomID, "room-1")
	}
}

func TestCreate_SameDayTurnover(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-01-10", "2024-01-15")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Touching intervals do not overlap: a new stay may begin the day the
	// previous one checks out.
	if _, err := svc.Create(ctx, other, "room-1", mustRange(t, "2024-01-15", "2024-01-20")); err != nil {
		t.Fatalf("adjacent create failed: %v", err)
	}
}

func TestCreate_CancelledReservationReleasesDates(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-01-10", "2024-01-15"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, guest, res.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Create(ctx, other, "room-1", mustRange(t, "2024-01-10", "2024-01-15")); err != nil {
		t.Fatalf("create over cancelled dates failed: %v", err)
	}
}

// --- IsAvailable ---

func TestIsAvailable(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-01-10", "2024-01-15"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	available, err := svc.IsAvailable(ctx, "room-1", mustRange(t, "2024-01-12", "2024-01-14"), "")
	if err != nil {
		t.Fatalf("IsAvailable failed: %v", err)
	}
	if available {
		t.Error("overlapping range should not be available")
	}

	// Excluding the blocking reservation frees the dates (update-in-place).
	available, err = svc.IsAvailable(ctx, "room-1", mustRange(t, "2024-01-12", "2024-01-14"), res.ID)
	if err != nil {
		t.Fatalf("IsAvailable with exclusion failed: %v", err)
	}
	if !available {
		t.Error("range should be available when the only blocker is excluded")
	}

	if _, err := svc.IsAvailable(ctx, "nonexistent", mustRange(t, "2024-01-12", "2024-01-14"), ""); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

// --- Transitions ---

func TestLifecycle_HappyPath(t *testing.T) {
	svc, _, rooms, pub := newMockService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	res, err = svc.Confirm(ctx, res.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if res.Status != domain.StatusConfirmed {
		t.Errorf("Status = %q, want %q", res.Status, domain.StatusConfirmed)
	}

	res, err = svc.CheckIn(ctx, res.ID)
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if res.Status != domain.StatusCheckedIn {
		t.Errorf("Status = %q, want %q", res.Status, domain.StatusCheckedIn)
	}
	room, _ := rooms.GetByID(ctx, "room-1")
	if room.Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q after check-in", room.Status, domain.RoomOccupied)
	}

	res, err = svc.CheckOut(ctx, res.ID)
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if res.Status != domain.StatusCheckedOut {
		t.Errorf("Status = %q, want %q", res.Status, domain.StatusCheckedOut)
	}
	room, _ = rooms.GetByID(ctx, "room-1")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q after check-out", room.Status, domain.RoomAvailable)
	}

	events := pub.published()
	want := []domain.Event{domain.EventCreate, domain.EventConfirm, domain.EventCheckIn, domain.EventCheckOut}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range want {
		if events[i].event != e {
			t.Errorf("event[%d] = %q, want %q", i, events[i].event, e)
		}
	}
}

func TestConfirm_Twice_Rejected(t *testing.T) {
	svc, reservations, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))
	if _, err := svc.Confirm(ctx, res.ID); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	_, err := svc.Confirm(ctx, res.ID)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Current != domain.StatusConfirmed {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusConfirmed)
	}

	// The stored status must be untouched by the rejected transition.
	stored, _ := reservations.GetByID(ctx, res.ID)
	if stored.Status != domain.StatusConfirmed {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.StatusConfirmed)
	}
}

func TestCheckIn_FromPending_Rejected(t *testing.T) {
	svc, _, rooms, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))

	_, err := svc.CheckIn(ctx, res.ID)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	// The room must not be flipped by a rejected check-in.
	room, _ := rooms.GetByID(ctx, "room-1")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomAvailable)
	}
}

func TestTransition_NotFound(t *testing.T) {
	svc, _, _, _ := newMockService(t)

	if _, err := svc.Confirm(context.Background(), "nonexistent"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}
}

// --- Cancel ---

func TestCancel_ByOwner(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))

	cancelled, err := svc.Cancel(ctx, guest, res.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("Status = %q, want %q", cancelled.Status, domain.StatusCancelled)
	}
}

func TestCancel_ByStranger_Forbidden(t *testing.T) {
	svc, reservations, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))

	_, err := svc.Cancel(ctx, other, res.ID)
	var forbiddenErr *domain.ForbiddenError
	if !errors.As(err, &forbiddenErr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}

	stored, _ := reservations.GetByID(ctx, res.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.StatusPending)
	}
}

func TestCancel_ByPrivileged(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))

	if _, err := svc.Cancel(ctx, admin, res.ID); err != nil {
		t.Fatalf("privileged cancel failed: %v", err)
	}
}

func TestCancel_AfterCheckIn_Rejected(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))
	if _, err := svc.Confirm(ctx, res.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := svc.CheckIn(ctx, res.ID); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	_, err := svc.Cancel(ctx, guest, res.ID)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Current != domain.StatusCheckedIn {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusCheckedIn)
	}
}

// --- Reads ---

func TestGetByID_Ownership(t *testing.T) {
	svc, _, _, _ := newMockService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))

	if _, err := svc.GetByID(ctx, guest, res.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, admin, res.ID); err != nil {
		t.Errorf("privileged read failed: %v", err)
	}

	_, err := svc.GetByID(ctx, other, res.ID)
	var forbiddenErr *domain.ForbiddenError
	if !errors.As(err, &forbiddenErr) {
		t.Errorf("expected ForbiddenError, got %v", err)
	}
}

func TestList_ScopesNonPrivilegedActor(t *testing.T) {
	svc, _, rooms, _ := newMockService(t)
	ctx := context.Background()

	rooms.rooms["room-2"] = domain.NewRoom("room-2", "102", "suite", 25000)

	if _, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, other, "room-2", mustRange(t, "2024-06-10", "2024-06-15")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A non-privileged actor only sees their own, even when asking for
	// someone else's.
	mine, err := svc.List(ctx, guest, domain.ReservationFilter{GuestID: "guest-2"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 1 || mine[0].GuestID != "guest-1" {
		t.Errorf("List = %v, want only guest-1's reservation", mine)
	}

	// A privileged actor may filter by owner explicitly.
	theirs, err := svc.List(ctx, admin, domain.ReservationFilter{GuestID: "guest-2"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(theirs) != 1 || theirs[0].GuestID != "guest-2" {
		t.Errorf("List = %v, want only guest-2's reservation", theirs)
	}

	all, err := svc.List(ctx, admin, domain.ReservationFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d reservations, want 2", len(all))
	}
}

// --- Store-backed properties ---

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ domain.Event, _ domain.Reservation) error {
	return nil
}

func newStoreService(t *testing.T) (*app.ReservationService, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(t.TempDir() + "/app_test.db")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := app.NewReservationService(store.Reservations(), store.Rooms(), noopPublisher{}, fsm.New())

	if err := store.Rooms().Create(context.Background(), domain.NewRoom("room-1", "101", "double", 12000)); err != nil {
		t.Fatalf("creating room: %v", err)
	}
	return svc, store
}

// TestCreate_ConcurrentSameDates is the central double-booking property:
// N concurrent creates for the same room and identical dates must produce
// exactly one success and N-1 conflicts.
func TestCreate_ConcurrentSameDates(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()
	dates := mustRange(t, "2024-06-10", "2024-06-15")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, guest, "room-1", dates)
			errs[i] = err
		}()
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var conflictErr *domain.ConflictError
			if !errors.As(err, &conflictErr) {
				t.Errorf("unexpected error kind: %v", err)
				continue
			}
			conflicts++
		}
	}

	if successes != 1 {
		t.Errorf("got %d successes, want exactly 1", successes)
	}
	if conflicts != n-1 {
		t.Errorf("got %d conflicts, want %d", conflicts, n-1)
	}
}

// failingRoomRepo delegates to a real repository but refuses status
// updates, simulating a failure between the reservation write and the
// room write.
type failingRoomRepo struct {
	domain.RoomRepository
}

func (f *failingRoomRepo) UpdateStatus(_ context.Context, _ string, _ domain.RoomStatus) error {
	return errors.New("simulated room write failure")
}

// TestCheckIn_Atomicity verifies that a failure after the reservation
// status write but before the room status write rolls both back.
func TestCheckIn_Atomicity(t *testing.T) {
	svc, store := newStoreService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, guest, "room-1", mustRange(t, "2024-06-10", "2024-06-15"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, res.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	broken := app.NewReservationService(
		store.Reservations(),
		&failingRoomRepo{RoomRepository: store.Rooms()},
		noopPublisher{},
		fsm.New(),
	)

	if _, err := broken.CheckIn(ctx, res.ID); err == nil {
		t.Fatal("expected check-in to fail")
	}

	// Either both changed or neither did: the reservation must still be
	// confirmed and the room still available.
	stored, err := store.Reservations().GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != domain.StatusConfirmed {
		t.Errorf("reservation status = %q, want %q", stored.Status, domain.StatusConfirmed)
	}
	room, err := store.Rooms().GetByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("room GetByID failed: %v", err)
	}
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomAvailable)
	}

	// The untouched service still completes the check-in.
	if _, err := svc.CheckIn(ctx, res.ID); err != nil {
		t.Fatalf("check-in after rollback failed: %v", err)
	}
}
