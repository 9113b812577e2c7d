package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotMember       = errors.New("not a member of this room")
	ErrForbidden       = errors.New("only the room creator can delete this room")

	ErrRoomNameRequired = errors.New("room name is required")
	ErrRoomNameTooLong  = errors.New("room name must be less than 50 characters")
	ErrContentRequired  = errors.New("message content is required")
	ErrContentTooLong   = errors.New("message content must be between 1 and 5000 characters")
	ErrInvalidKind      = errors.New("message type must be either 'text' or 'image'")
)

// IsValidation — ошибки входных данных (400).
func IsValidation(err error) bool {
	return errors.Is(err, ErrRoomNameRequired) ||
		errors.Is(err, ErrRoomNameTooLong) ||
		errors.Is(err, ErrContentRequired) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidKind)
}
