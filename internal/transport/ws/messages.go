package ws

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

// События от клиента
const (
	EventJoinRoom         = "join_room"
	EventLeaveRoom        = "leave_room"
	EventSendMessage      = "send_message"
	EventSendImageMessage = "send_image_message"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventUpdateStatus     = "update_status"
)

// События клиенту
const (
	TypeConnected         = "connected"
	TypeRoomJoined        = "room_joined"
	TypeRoomLeft          = "room_left"
	TypeUserJoined        = "user_joined"
	TypeUserLeft          = "user_left"
	TypeUsersUpdate       = "users_update" // полный снапшот участников комнаты
	TypeNewMessage        = "new_message"
	TypeUserTyping        = "user_typing"
	TypeUserStatusChanged = "user_status_changed"
	TypeUserDisconnected  = "user_disconnected"
	TypeRoomCreated       = "room_created"
	TypeRoomDeleted       = "room_deleted"
	TypeRoomRemoved       = "room_removed"
	TypeError             = "error"
)

// Тексты error-событий
const (
	ErrMsgRoomNotFound    = "Room not found"
	ErrMsgMessageRequired = "Content and roomId are required"
	ErrMsgImageRequired   = "Image URL and roomId are required"
	ErrMsgJoinFailed      = "Failed to join room"
	ErrMsgSendFailed      = "Failed to send message"
	ErrMsgSendImageFailed = "Failed to send image message"
	ErrMsgUnknownEvent    = "unknown event"
	ErrMsgInvalidPayload  = "invalid payload"
	ErrMsgSessionReplaced = "session replaced"
	ErrMsgInternal        = "internal error"
)

// Message — исходящий конверт.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Event — входящий конверт; payload разбирается обработчиком.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomID принимает как число, так и строку с числом ("42").
type RoomID int64

func (id *RoomID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*id = RoomID(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*id = RoomID(v)
	return nil
}

// --- входящие payload-ы ---

type RoomRequest struct {
	RoomID RoomID `json:"roomId"`
}

type SendMessageRequest struct {
	RoomID  RoomID `json:"roomId"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type SendImageRequest struct {
	RoomID   RoomID `json:"roomId"`
	ImageURL string `json:"imageUrl"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// --- исходящие payload-ы ---

type ConnectedPayload struct {
	Message string          `json:"message"`
	User    domain.Identity `json:"user"`
}

type RoomJoinedPayload struct {
	RoomID   int64  `json:"roomId"`
	RoomName string `json:"roomName"`
	Message  string `json:"message"`
}

type RoomLeftPayload struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

// PresencePayload — user_joined, user_left, user_disconnected.
type PresencePayload struct {
	User      domain.Identity `json:"user"`
	RoomID    int64           `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
}

type NewMessagePayload struct {
	Message   *domain.Message `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	IsAI      bool            `json:"isAI,omitempty"`
}

type TypingPayload struct {
	User     domain.Identity `json:"user"`
	RoomID   int64           `json:"roomId"`
	IsTyping bool            `json:"isTyping"`
}

type StatusPayload struct {
	User      domain.Identity `json:"user"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

type RoomCreatedPayload struct {
	Room      *domain.Room `json:"room"`
	Timestamp time.Time    `json:"timestamp"`
}

type RoomDeletedPayload struct {
	Room      domain.RoomInfo `json:"room"`
	Timestamp time.Time       `json:"timestamp"`
}

type RoomRemovedPayload struct {
	RoomID    int64     `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// encode сериализует конверт один раз для всех получателей.
func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Payload: payload})
}
