package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"

	"github.com/jackc/pgx/v5"
)

type RoomRepository struct {
	q querier
}

func NewRoomRepository(q querier) *RoomRepository {
	return &RoomRepository{q: q}
}

// Create вставляет комнату и сразу делает создателя участником — одной транзакцией.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, queryCreateRoom, room.Name, room.Description, room.IsPrivate, room.CreatedBy).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	var joinedAt time.Time
	if err := tx.QueryRow(ctx, queryJoinRoom, room.CreatedBy, room.ID).Scan(&joinedAt); err != nil &&
		!errors.Is(err, pgx.ErrNoRows) {
		return mapPgError(err)
	}

	return tx.Commit(ctx)
}

func (r *RoomRepository) Get(ctx context.Context, id int64) (*domain.Room, error) {
	rm, err := scanRoom(r.q.QueryRow(ctx, queryGetRoom, id), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, mapPgError(err)
	}
	return rm, nil
}

func (r *RoomRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, queryRoomExists, id).Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

// List — все комнаты с создателем и флагом isJoined для userID.
func (r *RoomRepository) List(ctx context.Context, userID int64) ([]domain.Room, error) {
	rows, err := r.q.Query(ctx, queryListRooms, userID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Room, 0, 16)
	for rows.Next() {
		rm, err := scanRoom(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, queryDeleteRoom, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func scanRoom(row pgx.Row, withJoined bool) (*domain.Room, error) {
	var (
		rm      domain.Room
		creator domain.Identity
		joined  bool
	)
	dest := []any{
		&rm.ID, &rm.Name, &rm.Description, &rm.IsPrivate, &rm.CreatedBy, &rm.CreatedAt, &rm.UpdatedAt,
		&creator.ID, &creator.Username, &creator.Avatar,
	}
	if withJoined {
		dest = append(dest, &joined)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rm.Creator = &creator
	if withJoined {
		rm.IsJoined = &joined
	}
	return &rm, nil
}
