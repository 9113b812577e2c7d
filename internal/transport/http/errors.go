package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/postgres"
	"github.com/cwrk-planet/chatcord/internal/service"
	"github.com/cwrk-planet/chatcord/pkg/errs"
	"github.com/cwrk-planet/chatcord/pkg/httputil"
)

type publicError struct {
	err    error
	status int
	msg    string
}

// порядок важен: первое совпадение по errors.Is
var publicErrors = []publicError{
	{domain.ErrRoomNotFound, http.StatusNotFound, "Room not found"},
	{domain.ErrMessageNotFound, http.StatusNotFound, "Message not found"},
	{domain.ErrNotMember, http.StatusNotFound, "Not a member of this room"},
	{domain.ErrForbidden, http.StatusForbidden, "Only the room creator can delete this room"},
	{domain.ErrRoomNameRequired, http.StatusBadRequest, "Room name is required"},
	{domain.ErrRoomNameTooLong, http.StatusBadRequest, "Room name must be less than 50 characters"},
	{domain.ErrContentRequired, http.StatusBadRequest, "Message content is required"},
	{domain.ErrContentTooLong, http.StatusBadRequest, "Message content must be between 1 and 5000 characters"},
	{domain.ErrInvalidKind, http.StatusBadRequest, "Message type must be either 'text' or 'image'"},
	{service.ErrPromptRequired, http.StatusBadRequest, "Prompt is required"},
	{service.ErrAIUnavailable, http.StatusServiceUnavailable, "AI service is not configured. Please set up OpenAI API key."},
	{postgres.ErrInvalidCursor, http.StatusBadRequest, "Invalid cursor"},
}

func mapError(err error) (int, string) {
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return pe.status, pe.msg
		}
	}
	status := errs.ToHTTP(err)
	switch status {
	case http.StatusBadRequest:
		return status, "Bad request"
	case http.StatusUnauthorized:
		return status, "Invalid token"
	case http.StatusForbidden:
		return status, "Forbidden"
	case http.StatusNotFound:
		return status, "Not found"
	case http.StatusConflict:
		return status, "Conflict"
	case http.StatusBadGateway:
		return status, "AI service request failed"
	case http.StatusServiceUnavailable:
		return status, "Service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// fail пишет ошибку клиенту; 5xx ещё и логируются с причиной.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(op, httputil.ReqIDAttr(r.Context()), slog.Int("status", status), slog.Any("err", err))
	}
	httputil.Error(w, status, msg, nil)
}
