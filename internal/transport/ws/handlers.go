package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

type handlerFunc func(ctx context.Context, c *Client, payload json.RawMessage) error

// eventError уходит только инициатору как error{message}.
// cause != nil — сбой хранилища, его ещё и логируем.
type eventError struct {
	msg   string
	cause error
}

func (e *eventError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *eventError) Unwrap() error { return e.cause }

func rejected(msg string) error { return &eventError{msg: msg} }

func upstream(msg string, cause error) error { return &eventError{msg: msg, cause: cause} }

func (s *Server) dispatch(ctx context.Context, c *Client, ev Event) {
	h, ok := s.handlers[ev.Type]
	if !ok {
		c.sendError(ErrMsgUnknownEvent)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("ws handler panic", slog.String("event", ev.Type), slog.Any("panic", r))
			c.sendError(ErrMsgInternal)
		}
	}()

	if err := h(ctx, c, ev.Payload); err != nil {
		s.report(c, ev.Type, err)
	}
}

func (s *Server) report(c *Client, event string, err error) {
	var ee *eventError
	if !errors.As(err, &ee) {
		c.log.Error("ws handler failed", slog.String("event", event), slog.Any("err", err))
		c.sendError(ErrMsgInternal)
		return
	}
	if ee.cause != nil {
		c.log.Error("ws handler failed", slog.String("event", event), slog.Any("err", ee.cause))
	}
	c.sendError(ee.msg)
}

func decodePayload(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return rejected(ErrMsgInvalidPayload)
	}
	return nil
}

func (s *Server) handleJoinRoom(ctx context.Context, c *Client, raw json.RawMessage) error {
	var req RoomRequest
	if err := decodePayload(raw, &req); err != nil {
		return err
	}
	room, err := s.lookupRoom(ctx, int64(req.RoomID), ErrMsgJoinFailed)
	if err != nil {
		return err
	}
	s.hub.join(c, room)
	return nil
}

func (s *Server) handleLeaveRoom(_ context.Context, c *Client, raw json.RawMessage) error {
	var req RoomRequest
	if err := decodePayload(raw, &req); err != nil {
		return err
	}
	s.hub.leave(c, int64(req.RoomID))
	return nil
}

func (s *Server) handleSendMessage(ctx context.Context, c *Client, raw json.RawMessage) error {
	var req SendMessageRequest
	if err := decodePayload(raw, &req); err != nil {
		return err
	}
	// пробелы пропускаем дальше: их отклоняет ValidateContent при сохранении
	if req.RoomID <= 0 || req.Content == "" {
		return rejected(ErrMsgMessageRequired)
	}
	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		return rejected(err.Error())
	}
	return s.publish(ctx, c, domain.NewMessage{
		Content: req.Content,
		Type:    kind,
		UserID:  c.UserID(),
		RoomID:  int64(req.RoomID),
	}, ErrMsgSendFailed)
}

func (s *Server) handleSendImage(ctx context.Context, c *Client, raw json.RawMessage) error {
	var req SendImageRequest
	if err := decodePayload(raw, &req); err != nil {
		return err
	}
	url := strings.TrimSpace(req.ImageURL)
	if req.RoomID <= 0 || url == "" {
		return rejected(ErrMsgImageRequired)
	}
	return s.publish(ctx, c, domain.NewMessage{
		Content: url,
		Type:    domain.KindImage,
		UserID:  c.UserID(),
		RoomID:  int64(req.RoomID),
	}, ErrMsgSendImageFailed)
}

func (s *Server) handleTyping(isTyping bool) handlerFunc {
	return func(_ context.Context, c *Client, raw json.RawMessage) error {
		var req RoomRequest
		if err := decodePayload(raw, &req); err != nil {
			return err
		}
		s.hub.typing(c, int64(req.RoomID), isTyping)
		return nil
	}
}

func (s *Server) handleUpdateStatus(_ context.Context, c *Client, raw json.RawMessage) error {
	var req StatusRequest
	if err := decodePayload(raw, &req); err != nil {
		return err
	}
	s.hub.status(c, strings.TrimSpace(req.Status))
	return nil
}

// publish: проверка комнаты, запись, гидрация автора, new_message в комнату.
func (s *Server) publish(ctx context.Context, c *Client, in domain.NewMessage, failMsg string) error {
	if _, err := s.lookupRoom(ctx, in.RoomID, failMsg); err != nil {
		return err
	}

	created, err := s.messages.Create(ctx, in)
	if err != nil {
		if domain.IsValidation(err) {
			return rejected(err.Error())
		}
		return upstream(failMsg, fmt.Errorf("create message: %w", err))
	}
	full, err := s.messages.GetWithAuthor(ctx, created.ID)
	if err != nil {
		return upstream(failMsg, fmt.Errorf("hydrate message %d: %w", created.ID, err))
	}

	s.hub.NotifyNewMessage(in.RoomID, full, false)
	c.log.Debug("ws message sent", slog.Int64("room", in.RoomID), slog.Int64("msg", full.ID))
	return nil
}

func (s *Server) lookupRoom(ctx context.Context, id int64, failMsg string) (*domain.Room, error) {
	if id <= 0 {
		return nil, rejected(ErrMsgRoomNotFound)
	}
	room, err := s.rooms.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return nil, rejected(ErrMsgRoomNotFound)
	case err != nil:
		return nil, upstream(failMsg, fmt.Errorf("get room %d: %w", id, err))
	}
	return room, nil
}
