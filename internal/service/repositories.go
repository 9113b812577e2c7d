package service

import (
	"context"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

type UserRepository interface {
	GetIdentity(ctx context.Context, id int64) (*domain.Identity, error)
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id int64) (*domain.Room, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, userID int64) ([]domain.Room, error)
	Delete(ctx context.Context, id int64) error
}

type MembershipRepository interface {
	Join(ctx context.Context, userID, roomID int64) (*domain.Membership, bool, error)
	Leave(ctx context.Context, userID, roomID int64) error
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, in domain.NewMessage) (*domain.Message, error)
	GetWithAuthor(ctx context.Context, id int64) (*domain.Message, error)
	ListByRoom(ctx context.Context, roomID int64, after string, limit int, aiOnly bool) ([]domain.Message, string, error)
}

// Notifier доставляет REST-изменения живым соединениям (реализует ws.Hub).
type Notifier interface {
	NotifyRoomCreated(room *domain.Room)
	NotifyRoomDeleted(roomID int64, info domain.RoomInfo)
	NotifyNewMessage(roomID int64, msg *domain.Message, isAI bool)
}

type nopNotifier struct{}

func (nopNotifier) NotifyRoomCreated(*domain.Room) {}
func (nopNotifier) NotifyRoomDeleted(int64, domain.RoomInfo) {}
func (nopNotifier) NotifyNewMessage(int64, *domain.Message, bool) {}
