package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/security"
	"github.com/cwrk-planet/chatcord/pkg/errs"
)

type TokenVerifier interface {
	ParseAndValidate(token string) (*security.AccessClaims, error)
}

// IdentityService превращает bearer-токен в Identity.
// Любая неудача — errs.ErrUnauthorized, чтобы handshake отказывал одинаково.
type IdentityService struct {
	verifier TokenVerifier
	users    UserRepository
	log      *slog.Logger
}

func NewIdentityService(verifier TokenVerifier, users UserRepository, log *slog.Logger) *IdentityService {
	return &IdentityService{verifier: verifier, users: users, log: log}
}

func (s *IdentityService) ResolveFromToken(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token required", errs.ErrUnauthorized)
	}
	claims, err := s.verifier.ParseAndValidate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	uid, err := security.SubjectAsUserID(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}

	ident, err := s.users.GetIdentity(ctx, uid)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error("identity.resolve.getIdentity failed", slog.Int64("user", uid), slog.Any("err", err))
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	return ident, nil
}
