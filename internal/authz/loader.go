package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGLoader loads authorization attributes from PostgreSQL.
type PGLoader struct {
	db querier
}

// NewPGLoader constructs a loader over a pool or transaction.
func NewPGLoader(db querier) *PGLoader {
	return &PGLoader{db: db}
}

// Load returns the owning attributes of ref or a *NotFoundError.
func (l *PGLoader) Load(ctx context.Context, ref ResourceRef) (Resource, error) {
	res := Resource{Kind: ref.Kind, ID: ref.ID, Attrs: map[Field]int64{}}
	var err error
	switch ref.Kind {
	case KindUser:
		var id int64
		err = l.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, ref.ID).Scan(&id)
		res.Attrs[FieldUserID] = id
	case KindOrder:
		err = l.scanOne(ctx, `SELECT user_id FROM orders WHERE id = $1`, ref.ID, res.Attrs, FieldUserID)
	case KindOrdersSkill:
		err = l.scanOne(ctx, `SELECT order_id FROM orders_skills WHERE id = $1`, ref.ID, res.Attrs, FieldOrderID)
	case KindOrderHistory:
		err = l.scanOne(ctx, `SELECT order_id FROM order_history WHERE id = $1`, ref.ID, res.Attrs, FieldOrderID)
	case KindUsersSkill:
		err = l.scanOne(ctx, `SELECT user_id FROM users_skills WHERE id = $1`, ref.ID, res.Attrs, FieldUserID)
	case KindRoom:
		var first int64
		var second *int64
		err = l.db.QueryRow(ctx, `SELECT user_first_id, user_second_id FROM rooms WHERE id = $1`, ref.ID).Scan(&first, &second)
		res.Attrs[FieldUserFirstID] = first
		if second != nil {
			res.Attrs[FieldUserSecondID] = *second
		}
	case KindMessage:
		var userID, roomID int64
		err = l.db.QueryRow(ctx, `SELECT user_id, room_id FROM messages WHERE id = $1`, ref.ID).Scan(&userID, &roomID)
		res.Attrs[FieldUserID] = userID
		res.Attrs[FieldRoomID] = roomID
	default:
		return Resource{}, fmt.Errorf("authz: load unsupported kind %q", ref.Kind)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, &NotFoundError{Ref: ref}
		}
		return Resource{}, fmt.Errorf("authz: load %s %d: %w", ref.Kind, ref.ID, err)
	}
	return res, nil
}

func (l *PGLoader) scanOne(ctx context.Context, sql string, id int64, attrs map[Field]int64, f Field) error {
	var v int64
	if err := l.db.QueryRow(ctx, sql, id).Scan(&v); err != nil {
		return err
	}
	attrs[f] = v
	return nil
}
