package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/service"
	httpmw "github.com/cwrk-planet/chatcord/internal/transport/http/middleware"
	"github.com/cwrk-planet/chatcord/pkg/errs"
	"github.com/cwrk-planet/chatcord/pkg/httputil"
)

type RoomAPI interface {
	List(ctx context.Context, userID int64) ([]domain.Room, error)
	Create(ctx context.Context, userID int64, in service.CreateRoomInput) (*domain.Room, error)
	Delete(ctx context.Context, userID, roomID int64) error
	JoinDurable(ctx context.Context, userID, roomID int64) (*domain.Membership, bool, error)
	LeaveDurable(ctx context.Context, userID, roomID int64) error
}

type ChatAPI interface {
	CreateAndBroadcast(ctx context.Context, in domain.NewMessage) (*domain.Message, error)
	History(ctx context.Context, roomID int64, cursor string, limit int, aiOnly bool) (*service.HistoryPage, error)
}

type AIAPI interface {
	Status() service.AIStatus
	Summarize(ctx context.Context, userID, roomID int64) (*service.AIResult, error)
	Respond(ctx context.Context, userID, roomID int64, prompt string, contextSize int) (*service.AIResult, error)
	Summaries(ctx context.Context, roomID int64, cursor string, limit int) (*service.HistoryPage, error)
}

type OnlineCounter interface {
	OnlineCount() int
}

type Handler struct {
	rooms  RoomAPI
	chat   ChatAPI
	ai     AIAPI
	online OnlineCounter
	log    *slog.Logger
}

func NewHandler(rooms RoomAPI, chat ChatAPI, ai AIAPI, online OnlineCounter, log *slog.Logger) *Handler {
	return &Handler{
		rooms:  rooms,
		chat:   chat,
		ai:     ai,
		online: online,
		log:    log,
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errs.ErrInvalidInput, err)
	}
	return nil
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

// GET /
func (h *Handler) Banner(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Chat-Cord Server is running!"})
}

// GET /stats
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, StatsResponse{OnlineUsers: h.online.OnlineCount()})
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, "handler.ListRooms", err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	httputil.OK(w, rooms)
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "handler.CreateRoom.Decode", err)
		return
	}
	room, err := h.rooms.Create(r.Context(), httpmw.UserIDFromCtx(r.Context()), service.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		h.fail(w, r, "handler.CreateRoom", err)
		return
	}
	httputil.Data(w, http.StatusCreated, room, map[string]any{"message": "Room created successfully"})
}

// DELETE /rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := httpmw.RoomIDFromCtx(r.Context())
	if err := h.rooms.Delete(r.Context(), httpmw.UserIDFromCtx(r.Context()), roomID); err != nil {
		h.fail(w, r, "handler.DeleteRoom", err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}

// POST /rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := httpmw.RoomIDFromCtx(r.Context())
	m, created, err := h.rooms.JoinDurable(r.Context(), httpmw.UserIDFromCtx(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, "handler.JoinRoom", err)
		return
	}
	if !created {
		httputil.JSON(w, http.StatusOK, map[string]string{"message": "Already a member of this room"})
		return
	}
	httputil.Data(w, http.StatusOK, m, map[string]any{"message": "Successfully joined room"})
}

// DELETE /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := httpmw.RoomIDFromCtx(r.Context())
	if err := h.rooms.LeaveDurable(r.Context(), httpmw.UserIDFromCtx(r.Context()), roomID); err != nil {
		h.fail(w, r, "handler.LeaveRoom", err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Successfully left room"})
}

// GET /rooms/{id}/messages?cursor=&limit=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID := httpmw.RoomIDFromCtx(r.Context())
	page, err := h.chat.History(r.Context(), roomID, r.URL.Query().Get("cursor"), queryLimit(r), false)
	if err != nil {
		h.fail(w, r, "handler.GetMessages", err)
		return
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	httputil.OK(w, page)
}

// POST /rooms/{id}/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "handler.CreateMessage.Decode", err)
		return
	}
	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		h.fail(w, r, "handler.CreateMessage", err)
		return
	}
	h.createMessage(w, r, domain.NewMessage{Content: req.Content, Type: kind}, "Message sent successfully")
}

// POST /rooms/{id}/messages/image
func (h *Handler) CreateImageMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateImageMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "handler.CreateImageMessage.Decode", err)
		return
	}
	url := strings.TrimSpace(req.ImageURL)
	if url == "" {
		httputil.Error(w, http.StatusBadRequest, "Image URL is required", nil)
		return
	}
	h.createMessage(w, r, domain.NewMessage{Content: url, Type: domain.KindImage}, "Image message sent successfully")
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request, in domain.NewMessage, okMsg string) {
	in.UserID = httpmw.UserIDFromCtx(r.Context())
	in.RoomID = httpmw.RoomIDFromCtx(r.Context())

	msg, err := h.chat.CreateAndBroadcast(r.Context(), in)
	if err != nil {
		h.fail(w, r, "handler.CreateMessage", err)
		return
	}
	httputil.Data(w, http.StatusCreated, msg, map[string]any{"message": okMsg})
}

// GET /ai/status
func (h *Handler) AIStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.Data(w, http.StatusOK, h.ai.Status(), map[string]any{"message": "AI service status retrieved successfully"})
}

// POST /rooms/{id}/ai/summary
func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	res, err := h.ai.Summarize(r.Context(), httpmw.UserIDFromCtx(r.Context()), httpmw.RoomIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, "handler.GenerateSummary", err)
		return
	}
	label := "fallback"
	if res.Method == service.MethodAI {
		label = "AI"
	}
	httputil.Data(w, http.StatusCreated, res.Message, map[string]any{
		"message": "Summary generated successfully using " + label + " method",
		"method":  res.Method,
	})
}

// GET /rooms/{id}/ai/summaries?cursor=&limit=
func (h *Handler) SummaryHistory(w http.ResponseWriter, r *http.Request) {
	page, err := h.ai.Summaries(r.Context(), httpmw.RoomIDFromCtx(r.Context()), r.URL.Query().Get("cursor"), queryLimit(r))
	if err != nil {
		h.fail(w, r, "handler.SummaryHistory", err)
		return
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	extra := map[string]any{
		"message": "Summary history retrieved successfully",
		"total":   len(page.Messages),
	}
	if page.NextCursor != "" {
		extra["nextCursor"] = page.NextCursor
	}
	httputil.Data(w, http.StatusOK, page.Messages, extra)
}

// POST /rooms/{id}/ai/response
func (h *Handler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req AIResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "handler.GenerateResponse.Decode", err)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	res, err := h.ai.Respond(r.Context(), httpmw.UserIDFromCtx(r.Context()), httpmw.RoomIDFromCtx(r.Context()), prompt, req.Context)
	if err != nil {
		h.fail(w, r, "handler.GenerateResponse", err)
		return
	}
	httputil.Data(w, http.StatusCreated, res.Message, map[string]any{
		"message": "AI response generated successfully",
		"prompt":  prompt,
	})
}
