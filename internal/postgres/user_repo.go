package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chatcord/internal/domain"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	q querier
}

func NewUserRepository(q querier) *UserRepository {
	return &UserRepository{q: q}
}

// GetIdentity возвращает только id/username/avatar — больше ядру не нужно.
func (r *UserRepository) GetIdentity(ctx context.Context, id int64) (*domain.Identity, error) {
	var ident domain.Identity
	err := r.q.QueryRow(ctx, queryGetIdentity, id).Scan(&ident.ID, &ident.Username, &ident.Avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapPgError(err)
	}
	return &ident, nil
}
