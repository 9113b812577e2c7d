package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

var ErrHubClosed = errors.New("ws: hub is shut down")

// Hub владеет реестром соединений и live-присутствием в комнатах.
// Все рассылки в комнату идут под её блокировкой, поэтому снапшоты
// users_update приходят в порядке мутаций.
type Hub struct {
	registry *Registry
	presence *Presence
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewHub(log *slog.Logger) *Hub {
	reg := NewRegistry()
	return &Hub{
		registry: reg,
		presence: NewPresence(reg),
		log:      log,
		now:      time.Now,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }
func (h *Hub) Presence() *Presence { return h.presence }

// OnlineCount — число подключённых пользователей.
func (h *Hub) OnlineCount() int { return h.registry.Count() }

func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// register делает c видимым остальным и вытесняет прежнюю сессию того же пользователя.
func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.wg.Add(1)

	if prev := h.registry.Put(c); prev != nil {
		prev.sendError(ErrMsgSessionReplaced)
		prev.Close()
		h.log.Info("ws session replaced", slog.Int64("user", c.UserID()), slog.String("old", prev.ID()), slog.String("new", c.ID()))
	}
	return nil
}

// disconnect — teardown соединения: сначала реестр, затем по одной
// комнате. Сбой в одной комнате не мешает остальным.
func (h *Hub) disconnect(c *Client) {
	defer h.wg.Done()

	h.registry.RemoveConn(c)
	ts := h.now()
	for _, roomID := range c.Rooms() {
		if err := h.sweep(c, roomID, ts); err != nil {
			h.log.Error("ws teardown room failed", slog.Int64("room", roomID), slog.Int64("user", c.UserID()), slog.Any("err", err))
		}
		c.leaveRoom(roomID)
	}
}

func (h *Hub) sweep(c *Client, roomID int64, ts time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	gone := h.frame(TypeUserDisconnected, PresencePayload{User: c.Identity(), RoomID: roomID, Timestamp: ts})
	h.presence.ViewRoom(roomID, func(v *RoomView) {
		if !v.Leave(c) {
			return
		}
		others := v.Clients(nil)
		deliver(gone, others)
		deliver(h.frame(TypeUsersUpdate, v.Members()), others)
	})
	return nil
}

func (h *Hub) join(c *Client, room *domain.Room) {
	joined := h.frame(TypeUserJoined, PresencePayload{User: c.Identity(), RoomID: room.ID, Timestamp: h.now()})

	h.presence.WithRoom(room.ID, func(v *RoomView) {
		// вытесненная сессия не должна перезаписать запись новой
		if c.closed() {
			return
		}
		c.joinRoom(room.ID)
		if v.Join(c) {
			deliver(joined, v.Clients(c))
		}
		deliver(h.frame(TypeUsersUpdate, v.Members()), v.Clients(nil))
		// ack под блокировкой: получивший его клиент уже виден в Members
		c.sendEvent(TypeRoomJoined, RoomJoinedPayload{
			RoomID:   room.ID,
			RoomName: room.Name,
			Message:  "Joined room: " + room.Name,
		})
	})
}

func (h *Hub) leave(c *Client, roomID int64) {
	left := h.frame(TypeUserLeft, PresencePayload{User: c.Identity(), RoomID: roomID, Timestamp: h.now()})

	h.presence.ViewRoom(roomID, func(v *RoomView) {
		if !v.Leave(c) {
			return
		}
		others := v.Clients(nil)
		deliver(left, others)
		deliver(h.frame(TypeUsersUpdate, v.Members()), others)
	})
	c.leaveRoom(roomID)
	c.sendEvent(TypeRoomLeft, RoomLeftPayload{RoomID: roomID, Message: "Left room"})
}

func (h *Hub) typing(c *Client, roomID int64, isTyping bool) {
	h.toRoom(roomID, c, TypeUserTyping, TypingPayload{User: c.Identity(), RoomID: roomID, IsTyping: isTyping})
}

// status уходит во все комнаты соединения, каждому получателю один раз.
func (h *Hub) status(c *Client, status string) {
	frame := h.frame(TypeUserStatusChanged, StatusPayload{User: c.Identity(), Status: status, Timestamp: h.now()})
	if frame == nil {
		return
	}

	seen := make(map[*Client]struct{})
	for _, roomID := range c.Rooms() {
		h.presence.ViewRoom(roomID, func(v *RoomView) {
			if !v.Has(c) {
				return
			}
			for _, o := range v.Clients(c) {
				if _, dup := seen[o]; dup {
					continue
				}
				seen[o] = struct{}{}
				o.enqueue(frame)
			}
		})
	}
}

// --- REST -> live ---

func (h *Hub) NotifyRoomCreated(room *domain.Room) {
	h.toAll(TypeRoomCreated, RoomCreatedPayload{Room: room, Timestamp: h.now()})
}

// NotifyRoomDeleted: room_deleted участникам комнаты, снятие её live-трекинга,
// затем room_removed всем.
func (h *Hub) NotifyRoomDeleted(roomID int64, info domain.RoomInfo) {
	ts := h.now()
	deleted := h.frame(TypeRoomDeleted, RoomDeletedPayload{Room: info, Timestamp: ts})

	// множества комнат соединений чистим под той же блокировкой, что и presence
	h.presence.Drop(roomID, func(v *RoomView) {
		clients := v.Clients(nil)
		deliver(deleted, clients)
		for _, c := range clients {
			c.leaveRoom(roomID)
		}
	})

	h.toAll(TypeRoomRemoved, RoomRemovedPayload{RoomID: roomID, Timestamp: ts})
}

func (h *Hub) NotifyNewMessage(roomID int64, msg *domain.Message, isAI bool) {
	h.toRoom(roomID, nil, TypeNewMessage, NewMessagePayload{Message: msg, Timestamp: h.now(), IsAI: isAI})
}

// Shutdown закрывает все соединения, ждёт их teardown (или ctx) и очищает состояние.
// После Shutdown новые соединения не принимаются.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, c := range h.registry.Snapshot() {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	h.registry.Clear()
	h.presence.Clear()
	return err
}

// --- helpers ---

func (h *Hub) toRoom(roomID int64, except *Client, typ string, payload any) {
	frame := h.frame(typ, payload)
	if frame == nil {
		return
	}
	h.presence.ViewRoom(roomID, func(v *RoomView) {
		deliver(frame, v.Clients(except))
	})
}

func (h *Hub) toAll(typ string, payload any) {
	deliver(h.frame(typ, payload), h.registry.Snapshot())
}

func (h *Hub) frame(typ string, payload any) []byte {
	b, err := encode(typ, payload)
	if err != nil {
		h.log.Error("ws encode failed", slog.String("type", typ), slog.Any("err", err))
		return nil
	}
	return b
}

func deliver(frame []byte, clients []*Client) {
	if frame == nil {
		return
	}
	for _, c := range clients {
		c.enqueue(frame)
	}
}
