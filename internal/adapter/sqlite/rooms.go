package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ofurlan/roomledger/internal/domain"
)

// RoomRepository implements domain.RoomRepository using SQLite.
type RoomRepository struct {
	store *Store
}

// Compile-time check: RoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*RoomRepository)(nil)

func (r *RoomRepository) Create(ctx context.Context, room domain.Room) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO rooms (id, number, category, price_cents, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Number, room.Category, room.PriceCents, string(room.Status),
		room.CreatedAt.Format(timeFormat),
		room.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.RoomNumberConflictError{Number: room.Number}
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	return scanRoom(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT id, number, category, price_cents, status, created_at, updated_at
		 FROM rooms WHERE id = ?`, id,
	))
}

func (r *RoomRepository) GetByNumber(ctx context.Context, number string) (domain.Room, error) {
	return scanRoom(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT id, number, category, price_cents, status, created_at, updated_at
		 FROM rooms WHERE number = ?`, number,
	))
}

func (r *RoomRepository) List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error) {
	query := `SELECT id, number, category, price_cents, status, created_at, updated_at FROM rooms`
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, filter.Category)
	}

	for i, cond := range where {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}

	query += ` ORDER BY number`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoomFromRows(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, id string, status domain.RoomStatus) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating room status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}

	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`DELETE FROM rooms WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}

	return nil
}

func scanRoom(row *sql.Row) (domain.Room, error) {
	var room domain.Room
	var status, createdAt, updatedAt string

	err := row.Scan(&room.ID, &room.Number, &room.Category, &room.PriceCents, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	room.Status = domain.RoomStatus(status)
	room.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	room.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return room, nil
}

func scanRoomFromRows(rows *sql.Rows) (domain.Room, error) {
	var room domain.Room
	var status, createdAt, updatedAt string

	err := rows.Scan(&room.ID, &room.Number, &room.Category, &room.PriceCents, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Room{}, fmt.Errorf("scanning room row: %w", err)
	}

	room.Status = domain.RoomStatus(status)
	room.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	room.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return room, nil
}
