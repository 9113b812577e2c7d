package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chatcord/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/*
абстрактный слой над *pgxpool.Pool / pgx.Tx,
чтобы составные операции (комната + членство создателя) шли одной транзакцией
*/
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errs.ErrConflict
		case pgForeignKeyViolation:
			// ссылка на удалённую комнату/пользователя
			return errs.ErrNotFound
		}
	}

	return err
}
