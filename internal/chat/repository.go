package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for rooms and messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roomColumns = `id, user_first_id, user_second_id, order_id, number`

func wrap(err error, what string, id int64) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	case shared.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced row does not exist", shared.ErrInvalidInput)
	}
	return err
}

func collectRooms(rows pgx.Rows) ([]Room, error) {
	defer rows.Close()
	out := []Room{}
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.UserFirstID, &rm.UserSecondID, &rm.OrderID, &rm.Number); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// ListRooms returns every room.
func (r *Repository) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

// ListRoomsFor returns the rooms userID participates in.
func (r *Repository) ListRoomsFor(ctx context.Context, userID int64) ([]Room, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms
		WHERE user_first_id = $1 OR user_second_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

// GetRoom returns one room.
func (r *Repository) GetRoom(ctx context.Context, id int64) (Room, error) {
	var rm Room
	err := r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id).
		Scan(&rm.ID, &rm.UserFirstID, &rm.UserSecondID, &rm.OrderID, &rm.Number)
	if err != nil {
		return Room{}, wrap(err, "room", id)
	}
	return rm, nil
}

// CreateRoom inserts a room.
func (r *Repository) CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error) {
	var rm Room
	err := r.pool.QueryRow(ctx, `INSERT INTO rooms (user_first_id, user_second_id, order_id, number)
		VALUES ($1, $2, $3, $4) RETURNING `+roomColumns,
		req.UserFirstID, req.UserSecondID, req.OrderID, req.Number).
		Scan(&rm.ID, &rm.UserFirstID, &rm.UserSecondID, &rm.OrderID, &rm.Number)
	if err != nil {
		return Room{}, wrap(err, "room", 0)
	}
	return rm, nil
}

// UpdateRoom applies the non-nil metadata fields.
func (r *Repository) UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (Room, error) {
	var rm Room
	err := r.pool.QueryRow(ctx, `UPDATE rooms SET order_id = COALESCE($2, order_id), number = COALESCE($3, number)
		WHERE id = $1 RETURNING `+roomColumns, id, req.OrderID, req.Number).
		Scan(&rm.ID, &rm.UserFirstID, &rm.UserSecondID, &rm.OrderID, &rm.Number)
	if err != nil {
		return Room{}, wrap(err, "room", id)
	}
	return rm, nil
}

// DeleteRoom removes a room and its messages.
func (r *Repository) DeleteRoom(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM rooms WHERE id = $1`, "room", id)
}

func (r *Repository) deleteByID(ctx context.Context, sql, what string, id int64) error {
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	}
	return nil
}

// ListMessages returns a room's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, roomID int64) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, room_id, date, text FROM messages
		WHERE room_id = $1 ORDER BY date, id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.RoomID, &m.Date, &m.Text); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMessage stores a message.
func (r *Repository) CreateMessage(ctx context.Context, req CreateMessageRequest) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `INSERT INTO messages (user_id, room_id, text) VALUES ($1, $2, $3)
		RETURNING id, user_id, room_id, date, text`, req.UserID, req.RoomID, req.Text).
		Scan(&m.ID, &m.UserID, &m.RoomID, &m.Date, &m.Text)
	if err != nil {
		return Message{}, wrap(err, "message", 0)
	}
	return m, nil
}

// UpdateMessage edits a message's text.
func (r *Repository) UpdateMessage(ctx context.Context, id int64, text string) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `UPDATE messages SET text = $2 WHERE id = $1
		RETURNING id, user_id, room_id, date, text`, id, text).
		Scan(&m.ID, &m.UserID, &m.RoomID, &m.Date, &m.Text)
	if err != nil {
		return Message{}, wrap(err, "message", id)
	}
	return m, nil
}

// DeleteMessage removes a message.
func (r *Repository) DeleteMessage(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM messages WHERE id = $1`, "message", id)
}

var _ RepositoryPort = (*Repository)(nil)
