package httpmw

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/security"
	"github.com/cwrk-planet/chatcord/pkg/httputil"
)

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyRoomID   ctxKey = "room_id"
)

type IdentityResolver interface {
	ResolveFromToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth требует Authorization: Bearer <token> и кладёт identity в контекст.
func Auth(resolver IdentityResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := security.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			ident, err := resolver.ResolveFromToken(r.Context(), token)
			if err != nil {
				log.Debug("http auth rejected", httputil.ReqIDAttr(r.Context()), slog.Any("err", err))
				httputil.Error(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *ident)))
		})
	}
}

func WithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, ident)
}

func IdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return ident, ok
}

func UserIDFromCtx(ctx context.Context) int64 {
	if ident, ok := IdentityFromCtx(ctx); ok {
		return ident.ID
	}
	return 0
}
