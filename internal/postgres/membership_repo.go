package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/pkg/errs"

	"github.com/jackc/pgx/v5"
)

// MembershipRepository — долговременное членство (user_rooms).
type MembershipRepository struct {
	q querier
}

func NewMembershipRepository(q querier) *MembershipRepository {
	return &MembershipRepository{q: q}
}

// Join — find-or-create; created=false если пользователь уже участник.
func (r *MembershipRepository) Join(ctx context.Context, userID, roomID int64) (*domain.Membership, bool, error) {
	m := domain.Membership{UserID: userID, RoomID: roomID}
	err := r.q.QueryRow(ctx, queryJoinRoom, userID, roomID).Scan(&m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING — строка уже была
			return nil, false, nil
		}
		err = mapPgError(err)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, false, domain.ErrRoomNotFound
		}
		return nil, false, err
	}
	return &m, true, nil
}

func (r *MembershipRepository) Leave(ctx context.Context, userID, roomID int64) error {
	tag, err := r.q.Exec(ctx, queryLeaveRoom, userID, roomID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *MembershipRepository) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, queryIsRoomMember, userID, roomID).Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

