package postgres

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/pkg/errs"
)

var ErrInvalidCursor = fmt.Errorf("%w: invalid cursor", errs.ErrInvalidInput)

// Cursor — позиция последнего отданного сообщения (created_at, id).
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// nextCursor: полная страница (новые -> старые) указывает на самое старое сообщение.
func nextCursor(page []domain.Message, limit int) (string, error) {
	if len(page) == 0 || len(page) < limit {
		return "", nil
	}
	oldest := page[len(page)-1]
	return EncodeCursor(Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID})
}

func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidCursor, err)
	}
	if c.ID <= 0 || c.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: empty position", ErrInvalidCursor)
	}
	return &c, nil
}
