package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

const MaxContentLen = 5000

func ParseKind(s string) (MessageKind, error) {
	switch MessageKind(strings.TrimSpace(s)) {
	case "", KindText:
		return KindText, nil
	case KindImage:
		return KindImage, nil
	default:
		return "", ErrInvalidKind
	}
}

type Message struct {
	ID        int64       `db:"id" json:"id"`
	Content   string      `db:"content" json:"content"`
	Type      MessageKind `db:"type" json:"type"`
	IsAI      bool        `db:"is_ai" json:"isAI"`
	UserID    int64       `db:"user_id" json:"userId"`
	RoomID    int64       `db:"room_id" json:"roomId"`
	User      *Identity   `db:"-" json:"user,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// ValidateContent checks the 1..5000 runes rule; content is not trimmed
// beyond the emptiness check.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return ErrContentTooLong
	}
	return nil
}

// NewMessage — черновик сообщения до вставки в БД.
type NewMessage struct {
	Content string
	Type    MessageKind
	IsAI    bool
	UserID  int64
	RoomID  int64
}
