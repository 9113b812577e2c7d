package domain

// Identity — публичная проекция пользователя (id, имя, аватар).
// Резолвится один раз на handshake и не меняется до конца соединения.
type Identity struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}
