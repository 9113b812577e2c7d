package domain

import "time"

type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
)

type User struct {
	ID        int64      `db:"id"`
	Username  string     `db:"username"`
	Email     string     `db:"email"`
	Avatar    *string    `db:"avatar"`
	Status    UserStatus `db:"status"`
	LastSeen  time.Time  `db:"last_seen"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
