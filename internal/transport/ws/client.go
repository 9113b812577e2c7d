package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client — одно живое соединение. Писать в сокет может только writePump,
// остальные кладут готовые кадры в send.
type Client struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	log      *slog.Logger

	send    chan []byte
	inbound chan Event

	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	rooms map[int64]struct{} // комнаты, в которые соединение вошло
}

type clientConfig struct {
	pingEvery       time.Duration
	writeWait       time.Duration
	sendBuffer      int
	inboundBuffer   int
	maxMessageBytes int64
}

func newClient(conn *websocket.Conn, ident domain.Identity, cfg clientConfig, log *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		identity: ident,
		conn:     conn,
		log:      log.With(slog.String("conn", id), slog.Int64("user", ident.ID)),
		send:     make(chan []byte, cfg.sendBuffer),
		inbound:  make(chan Event, cfg.inboundBuffer),
		done:     make(chan struct{}),
		rooms:    make(map[int64]struct{}),
	}
}

func (c *Client) ID() string { return c.id }
func (c *Client) UserID() int64 { return c.identity.ID }
func (c *Client) Identity() domain.Identity { return c.identity }

// Done закрывается, когда соединение начало закрываться.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close инициирует закрытие; сокет закрывает writePump. Повторные вызовы безопасны.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue никогда не блокирует. Переполненная очередь — медленный клиент,
// такое соединение закрываем.
func (c *Client) enqueue(frame []byte) bool {
	if frame == nil || c.closed() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.log.Warn("ws send buffer full, closing slow client")
		c.Close()
		return false
	}
}

func (c *Client) sendEvent(typ string, payload any) bool {
	frame, err := encode(typ, payload)
	if err != nil {
		c.log.Error("ws encode failed", slog.String("type", typ), slog.Any("err", err))
		return false
	}
	return c.enqueue(frame)
}

func (c *Client) sendError(msg string) bool {
	return c.sendEvent(TypeError, ErrorPayload{Message: msg})
}

func (c *Client) joinRoom(roomID int64) {
	c.mu.Lock()
	c.rooms[roomID] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) leaveRoom(roomID int64) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

// Rooms — отсортированная копия множества комнат соединения.
func (c *Client) Rooms() []int64 {
	c.mu.Lock()
	out := make([]int64, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// readPump: кадры -> Event в inbound. Единственный отправитель в inbound,
// поэтому он же его и закрывает.
func (c *Client) readPump(cfg clientConfig) {
	defer func() {
		close(c.inbound)
		c.Close()
	}()

	pongWait := 2 * cfg.pingEvery
	c.conn.SetReadLimit(cfg.maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				c.log.Warn("ws frame exceeds limit", slog.Int64("limit", cfg.maxMessageBytes))
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived):
				c.log.Debug("ws read failed", slog.Any("err", err))
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			c.sendError(ErrMsgInvalidPayload)
			continue
		}

		select {
		case c.inbound <- ev:
		case <-c.done:
			return
		}
	}
}

// writePump — единственный писатель сокета. После Close дописывает то,
// что уже в очереди (например, "session replaced"), и закрывает сокет.
func (c *Client) writePump(cfg clientConfig) {
	ticker := time.NewTicker(cfg.pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame, cfg.writeWait); err != nil {
				c.log.Debug("ws write failed", slog.Any("err", err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.writeWait)); err != nil {
				c.log.Debug("ws ping failed", slog.Any("err", err))
				c.Close()
				return
			}
		case <-c.done:
			c.flush(cfg.writeWait)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(cfg.writeWait))
			return
		}
	}
}

func (c *Client) write(frame []byte, wait time.Duration) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) flush(wait time.Duration) {
	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame, wait); err != nil {
				return
			}
		default:
			return
		}
	}
}
