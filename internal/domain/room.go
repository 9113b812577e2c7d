package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxRoomNameLen = 50

type Room struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	IsPrivate   bool      `db:"is_private" json:"isPrivate"`
	CreatedBy   int64     `db:"created_by" json:"createdBy"`
	Creator     *Identity `db:"-" json:"creator,omitempty"`
	IsJoined    *bool     `db:"-" json:"isJoined,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// RoomInfo — то, что уходит в room_deleted после удаления строки.
type RoomInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedBy int64  `json:"createdBy"`
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{ID: r.ID, Name: r.Name, CreatedBy: r.CreatedBy}
}

// NormalizeRoomName trims and validates a room name.
func NormalizeRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrRoomNameRequired
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	return name, nil
}

// Membership — долговременное «пользователь вступил в комнату».
// Не путать с live-присутствием в ws.
type Membership struct {
	UserID   int64     `db:"user_id" json:"userId"`
	RoomID   int64     `db:"room_id" json:"roomId"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}
