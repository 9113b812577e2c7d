package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/cwrk-planet/chatcord/internal/ai"
	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/pkg/errs"
)

const (
	summaryHistory      = 50
	defaultContextSize  = 5
	maxContextSize      = 50
	defaultSummaryLimit = 10

	MethodAI       = "ai"
	MethodFallback = "fallback"
)

var (
	ErrPromptRequired = fmt.Errorf("%w: prompt is required", errs.ErrInvalidInput)
	ErrAIUnavailable  = fmt.Errorf("%w: AI service is not configured", errs.ErrUnavailable)
)

type AIProvider interface {
	Configured() bool
	Model() string
	Summarize(ctx context.Context, messages []domain.Message, roomName string) (string, error)
	Respond(ctx context.Context, history []domain.Message, roomName, question string) (string, error)
}

type AIService struct {
	rooms    RoomRepository
	messages MessageRepository
	provider AIProvider
	notifier Notifier
	log      *slog.Logger
}

func NewAIService(rooms RoomRepository, messages MessageRepository, provider AIProvider, notifier Notifier, log *slog.Logger) *AIService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &AIService{rooms: rooms, messages: messages, provider: provider, notifier: notifier, log: log}
}

type AIFeatures struct {
	Summarization  bool `json:"summarization"`
	ChatCompletion bool `json:"chatCompletion"`
	FallbackMode   bool `json:"fallbackMode"`
}

type AIStatus struct {
	IsConfigured bool       `json:"isConfigured"`
	Service      string     `json:"service"`
	Features     AIFeatures `json:"features"`
}

func (s *AIService) Status() AIStatus {
	ok := s.provider.Configured()
	st := AIStatus{
		IsConfigured: ok,
		Service:      "Fallback summary generator",
		Features: AIFeatures{
			Summarization:  true,
			ChatCompletion: ok,
			FallbackMode:   !ok,
		},
	}
	if ok {
		st.Service = "OpenAI " + s.provider.Model()
	}
	return st
}

type AIResult struct {
	Message *domain.Message `json:"message"`
	Method  string          `json:"method"`
}

// Summarize пересказывает последние сообщения комнаты. Если провайдер не
// настроен или упал, используется ai.FallbackSummary. Результат сохраняется
// как AI-сообщение и рассылается в комнату.
func (s *AIService) Summarize(ctx context.Context, userID, roomID int64) (*AIResult, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	history, _, err := s.messages.ListByRoom(ctx, roomID, "", summaryHistory, false)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListByRoom: %w", err)
	}

	method := MethodFallback
	var content string
	if s.provider.Configured() {
		content, err = s.provider.Summarize(ctx, history, room.Name)
		if err == nil {
			method = MethodAI
		} else {
			s.log.Warn("ai.summarize failed, using fallback", slog.Int64("room", roomID), slog.Any("err", err))
		}
	}
	if method == MethodFallback {
		content = ai.FallbackSummary(history, room.Name)
	}

	msg, err := s.store(ctx, userID, roomID, content)
	if err != nil {
		return nil, err
	}
	return &AIResult{Message: msg, Method: method}, nil
}

// Respond отвечает на вопрос с учётом contextSize последних сообщений.
func (s *AIService) Respond(ctx context.Context, userID, roomID int64, prompt string, contextSize int) (*AIResult, error) {
	if prompt == "" {
		return nil, ErrPromptRequired
	}
	if contextSize <= 0 {
		contextSize = defaultContextSize
	}
	if contextSize > maxContextSize {
		contextSize = maxContextSize
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !s.provider.Configured() {
		return nil, ErrAIUnavailable
	}

	history, _, err := s.messages.ListByRoom(ctx, roomID, "", contextSize, false)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListByRoom: %w", err)
	}
	reply, err := s.provider.Respond(ctx, history, room.Name, prompt)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return nil, ErrAIUnavailable
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstream, err)
	}

	msg, err := s.store(ctx, userID, roomID, reply)
	if err != nil {
		return nil, err
	}
	return &AIResult{Message: msg, Method: MethodAI}, nil
}

// Summaries — история AI-сообщений комнаты.
func (s *AIService) Summaries(ctx context.Context, roomID int64, cursor string, limit int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultSummaryLimit
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
	msgs, next, err := s.messages.ListByRoom(ctx, roomID, cursor, limit, true)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListByRoom: %w", err)
	}
	return &HistoryPage{Messages: msgs, NextCursor: next}, nil
}

func (s *AIService) store(ctx context.Context, userID, roomID int64, content string) (*domain.Message, error) {
	if utf8.RuneCountInString(content) > domain.MaxContentLen {
		content = string([]rune(content)[:domain.MaxContentLen])
	}
	created, err := s.messages.Create(ctx, domain.NewMessage{
		Content: content,
		Type:    domain.KindText,
		IsAI:    true,
		UserID:  userID,
		RoomID:  roomID,
	})
	if err != nil {
		return nil, fmt.Errorf("messageRepo.Create: %w", err)
	}
	full, err := s.messages.GetWithAuthor(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.GetWithAuthor: %w", err)
	}
	s.notifier.NotifyNewMessage(roomID, full, true)
	return full, nil
}
