package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

type RoomService struct {
	rooms    RoomRepository
	members  MembershipRepository
	notifier Notifier
	log      *slog.Logger
}

func NewRoomService(rooms RoomRepository, members MembershipRepository, notifier Notifier, log *slog.Logger) *RoomService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &RoomService{rooms: rooms, members: members, notifier: notifier, log: log}
}

// List возвращает все комнаты с флагом isJoined для userID.
func (s *RoomService) List(ctx context.Context, userID int64) ([]domain.Room, error) {
	rooms, err := s.rooms.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("roomRepo.List: %w", err)
	}
	return rooms, nil
}

// Get возвращает комнату по ID вместе с создателем.
func (s *RoomService) Get(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

func (s *RoomService) Exists(ctx context.Context, id int64) (bool, error) {
	return s.rooms.Exists(ctx, id)
}

type CreateRoomInput struct {
	Name        string
	Description *string
	IsPrivate   bool
}

// Create создаёт комнату, создатель становится участником, всем уходит room_created.
func (s *RoomService) Create(ctx context.Context, userID int64, in CreateRoomInput) (*domain.Room, error) {
	name, err := domain.NormalizeRoomName(in.Name)
	if err != nil {
		return nil, err
	}
	desc := in.Description
	if desc != nil && *desc == "" {
		desc = nil
	}

	room := &domain.Room{
		Name:        name,
		Description: desc,
		IsPrivate:   in.IsPrivate,
		CreatedBy:   userID,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("roomRepo.Create: %w", err)
	}

	// перечитываем, чтобы отдать creator
	full, err := s.rooms.Get(ctx, room.ID)
	if err != nil {
		s.log.Warn("room.create.reload failed", slog.Int64("room", room.ID), slog.Any("err", err))
		full = room
	}

	s.notifier.NotifyRoomCreated(full)
	s.log.Info("room created", slog.Int64("room", full.ID), slog.Int64("user", userID))
	return full, nil
}

// Delete удаляет комнату; разрешено только создателю.
func (s *RoomService) Delete(ctx context.Context, userID, roomID int64) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != userID {
		return domain.ErrForbidden
	}
	info := room.Info()

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("roomRepo.Delete: %w", err)
	}

	s.notifier.NotifyRoomDeleted(roomID, info)
	s.log.Info("room deleted", slog.Int64("room", roomID), slog.Int64("user", userID))
	return nil
}
