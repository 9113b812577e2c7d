package service

import (
	"context"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

// JoinDurable — долговременное вступление (user_rooms). created=false, если
// пользователь уже участник. Live-присутствие им не затрагивается.
func (s *RoomService) JoinDurable(ctx context.Context, userID, roomID int64) (*domain.Membership, bool, error) {
	if err := s.mustExist(ctx, roomID); err != nil {
		return nil, false, err
	}
	return s.members.Join(ctx, userID, roomID)
}

func (s *RoomService) LeaveDurable(ctx context.Context, userID, roomID int64) error {
	if err := s.mustExist(ctx, roomID); err != nil {
		return err
	}
	return s.members.Leave(ctx, userID, roomID)
}

func (s *RoomService) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	return s.members.IsMember(ctx, userID, roomID)
}

func (s *RoomService) mustExist(ctx context.Context, roomID int64) error {
	ok, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoomNotFound
	}
	return nil
}
