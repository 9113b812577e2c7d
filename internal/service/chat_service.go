package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

type ChatService struct {
	rooms    RoomRepository
	messages MessageRepository
	notifier Notifier
	log      *slog.Logger
}

func NewChatService(rooms RoomRepository, messages MessageRepository, notifier Notifier, log *slog.Logger) *ChatService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ChatService{rooms: rooms, messages: messages, notifier: notifier, log: log}
}

// Create валидирует и сохраняет сообщение. Автор в ответе не гидрирован.
func (s *ChatService) Create(ctx context.Context, in domain.NewMessage) (*domain.Message, error) {
	if in.Type == "" {
		in.Type = domain.KindText
	}
	if _, err := domain.ParseKind(string(in.Type)); err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(in.Content); err != nil {
		return nil, err
	}
	msg, err := s.messages.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.Create: %w", err)
	}
	return msg, nil
}

// GetWithAuthor — сообщение с автором (id, username, avatar).
func (s *ChatService) GetWithAuthor(ctx context.Context, id int64) (*domain.Message, error) {
	return s.messages.GetWithAuthor(ctx, id)
}

// CreateAndBroadcast — путь REST: проверка комнаты, сохранение, new_message в комнату.
func (s *ChatService) CreateAndBroadcast(ctx context.Context, in domain.NewMessage) (*domain.Message, error) {
	ok, err := s.rooms.Exists(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	created, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	full, err := s.messages.GetWithAuthor(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.GetWithAuthor: %w", err)
	}

	s.notifier.NotifyNewMessage(in.RoomID, full, full.IsAI)
	return full, nil
}

type HistoryPage struct {
	Messages   []domain.Message `json:"messages"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// History — сообщения комнаты в хронологическом порядке, страница идёт от новых к старым.
func (s *ChatService) History(ctx context.Context, roomID int64, cursor string, limit int, aiOnly bool) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	ok, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	msgs, next, err := s.messages.ListByRoom(ctx, roomID, cursor, limit, aiOnly)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListByRoom: %w", err)
	}
	return &HistoryPage{Messages: msgs, NextCursor: next}, nil
}
