package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ofurlan/roomledger/internal/domain"
)

// ReservationRepository implements domain.ReservationRepository using SQLite.
type ReservationRepository struct {
	store *Store
}

// Compile-time check: ReservationRepository implements domain.ReservationRepository.
var _ domain.ReservationRepository = (*ReservationRepository)(nil)

const reservationColumns = `r.id, r.guest_id, r.room_id, r.check_in, r.check_out,
	 r.status, r.created_at, r.updated_at, rm.number`

// WithTx runs fn inside a single transaction. Room repository calls made
// with the derived context join the same transaction, since both
// repositories share the store's connection.
func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.withTx(ctx, fn)
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO reservations (id, guest_id, room_id, check_in, check_out, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.GuestID, res.RoomID,
		res.Dates.CheckIn().Format(domain.DateFormat),
		res.Dates.CheckOut().Format(domain.DateFormat),
		string(res.Status),
		res.CreatedAt.Format(timeFormat),
		res.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	return scanReservation(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations r JOIN rooms rm ON rm.id = r.room_id
		 WHERE r.id = ?`, id,
	))
}

func (r *ReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	 FROM reservations r JOIN rooms rm ON rm.id = r.room_id`
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, `r.status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.RoomID != "" {
		where = append(where, `r.room_id = ?`)
		args = append(args, filter.RoomID)
	}
	if filter.GuestID != "" {
		where = append(where, `r.guest_id = ?`)
		args = append(args, filter.GuestID)
	}
	if filter.Dates != nil {
		// Half-open interval intersection: [check_in, check_out) must
		// share at least one night with the requested range.
		where = append(where, `r.check_in < ? AND r.check_out > ?`)
		args = append(args,
			filter.Dates.CheckOut().Format(domain.DateFormat),
			filter.Dates.CheckIn().Format(domain.DateFormat),
		)
	}

	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	query += ` ORDER BY r.created_at DESC, r.id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return r.queryReservations(ctx, query, args...)
}

func (r *ReservationRepository) ListActiveByRoom(ctx context.Context, roomID, excludeID string) ([]domain.Reservation, error) {
	placeholders := make([]string, len(domain.BlockingStatuses))
	args := []any{roomID}
	for i, s := range domain.BlockingStatuses {
		placeholders[i] = "?"
		args = append(args, string(s))
	}

	query := `SELECT ` + reservationColumns + `
	 FROM reservations r JOIN rooms rm ON rm.id = r.room_id
	 WHERE r.room_id = ? AND r.status IN (` + strings.Join(placeholders, ", ") + `)`

	if excludeID != "" {
		query += ` AND r.id != ?`
		args = append(args, excludeID)
	}

	return r.queryReservations(ctx, query, args...)
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrReservationNotFound
	}

	return nil
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservationFromRows(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func scanReservation(row *sql.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var checkIn, checkOut, status, createdAt, updatedAt string

	err := row.Scan(&res.ID, &res.GuestID, &res.RoomID, &checkIn, &checkOut,
		&status, &createdAt, &updatedAt, &res.RoomNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("scanning reservation: %w", err)
	}

	return hydrateReservation(res, checkIn, checkOut, status, createdAt, updatedAt)
}

func scanReservationFromRows(rows *sql.Rows) (domain.Reservation, error) {
	var res domain.Reservation
	var checkIn, checkOut, status, createdAt, updatedAt string

	err := rows.Scan(&res.ID, &res.GuestID, &res.RoomID, &checkIn, &checkOut,
		&status, &createdAt, &updatedAt, &res.RoomNumber)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("scanning reservation row: %w", err)
	}

	return hydrateReservation(res, checkIn, checkOut, status, createdAt, updatedAt)
}

func hydrateReservation(res domain.Reservation, checkIn, checkOut, status, createdAt, updatedAt string) (domain.Reservation, error) {
	dates, err := domain.ParseDateRange(checkIn, checkOut)
	if err != nil {
		// The CHECK constraint keeps stored ranges valid; a failure here
		// means the row was corrupted outside the application.
		return domain.Reservation{}, fmt.Errorf("stored date range: %w", err)
	}

	res.Dates = dates
	res.Status = domain.Status(status)
	res.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	res.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return res, nil
}
