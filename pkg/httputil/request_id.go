package httputil

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey struct{}

const (
	HeaderRequestID = "X-Request-ID"
	maxRequestIDLen = 64
)

// MiddlewareRequestID берёт X-Request-ID клиента, если он безопасен для логов,
// иначе выдаёт новый uuid. Итоговый id возвращается в ответе.
func MiddlewareRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqID)))
	})
}

// FromContext — достать request id из контекста.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok
}

// ReqIDAttr — атрибут req_id для логов; пустой, если middleware не отработал.
func ReqIDAttr(ctx context.Context) slog.Attr {
	id, _ := FromContext(ctx)
	return slog.String("req_id", id)
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
