package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/chatcord/internal/domain"

	"github.com/jackc/pgx/v5"
)

type MessageRepository struct {
	q querier
}

func NewMessageRepository(q querier) *MessageRepository {
	return &MessageRepository{q: q}
}

func (r *MessageRepository) Create(ctx context.Context, in domain.NewMessage) (*domain.Message, error) {
	m := domain.Message{
		Content: in.Content,
		Type:    in.Type,
		IsAI:    in.IsAI,
		UserID:  in.UserID,
		RoomID:  in.RoomID,
	}
	err := r.q.QueryRow(ctx, queryCreateMessage, in.Content, string(in.Type), in.IsAI, in.UserID, in.RoomID).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &m, nil
}

// GetWithAuthor — сообщение + автор (id/username/avatar).
func (r *MessageRepository) GetWithAuthor(ctx context.Context, id int64) (*domain.Message, error) {
	m, err := scanMessage(r.q.QueryRow(ctx, queryGetMessageWithAuthor, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, mapPgError(err)
	}
	return m, nil
}

// ListByRoom отдаёт страницу в хронологическом порядке и курсор на более старые.
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID int64, after string, limit int, aiOnly bool) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	var createdAt, id any
	if cur != nil {
		createdAt, id = cur.CreatedAt, cur.ID
	}

	rows, err := r.q.Query(ctx, queryListMessages, roomID, aiOnly, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next, err := nextCursor(out, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list messages room %d: %w", roomID, err)
	}
	reverse(out)

	return out, next, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m      domain.Message
		kind   string
		author domain.Identity
	)
	if err := row.Scan(
		&m.ID, &m.Content, &kind, &m.IsAI, &m.UserID, &m.RoomID, &m.CreatedAt, &m.UpdatedAt,
		&author.ID, &author.Username, &author.Avatar,
	); err != nil {
		return nil, err
	}
	m.Type = domain.MessageKind(kind)
	m.User = &author
	return &m, nil
}

func reverse(ms []domain.Message) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}
