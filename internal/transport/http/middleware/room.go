package httpmw

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/chatcord/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// RoomID разбирает {id} из пути. Нечисловой id — такой комнаты нет.
func RoomID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			httputil.Error(w, http.StatusNotFound, "Room not found", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRoomID, id)))
	})
}

func RoomIDFromCtx(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKeyRoomID).(int64)
	return id
}
