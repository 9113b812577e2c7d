package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/security"
	"github.com/cwrk-planet/chatcord/pkg/httputil"

	"github.com/gorilla/websocket"
)

type IdentityResolver interface {
	ResolveFromToken(ctx context.Context, token string) (*domain.Identity, error)
}

type RoomLookup interface {
	Get(ctx context.Context, id int64) (*domain.Room, error)
}

type MessageStore interface {
	Create(ctx context.Context, in domain.NewMessage) (*domain.Message, error)
	GetWithAuthor(ctx context.Context, id int64) (*domain.Message, error)
}

type Config struct {
	PingEvery       time.Duration
	WriteWait       time.Duration
	SendBuffer      int
	InboundBuffer   int
	MaxMessageBytes int64
	AllowedOrigins  []string
}

// Server — gateway: handshake, upgrade и цикл обработки событий соединения.
type Server struct {
	hub        *Hub
	identities IdentityResolver
	rooms      RoomLookup
	messages   MessageStore

	upgrader websocket.Upgrader
	cfg      clientConfig
	log      *slog.Logger
	handlers map[string]handlerFunc
}

func NewServer(hub *Hub, identities IdentityResolver, rooms RoomLookup, messages MessageStore, cfg Config, log *slog.Logger) *Server {
	cc := clientConfig{
		pingEvery:       cfg.PingEvery,
		writeWait:       cfg.WriteWait,
		sendBuffer:      cfg.SendBuffer,
		inboundBuffer:   cfg.InboundBuffer,
		maxMessageBytes: cfg.MaxMessageBytes,
	}
	if cc.pingEvery <= 0 {
		cc.pingEvery = 15 * time.Second
	}
	if cc.writeWait <= 0 {
		cc.writeWait = 5 * time.Second
	}
	if cc.sendBuffer <= 0 {
		cc.sendBuffer = 256
	}
	if cc.inboundBuffer <= 0 {
		cc.inboundBuffer = 32
	}
	if cc.maxMessageBytes <= 0 {
		cc.maxMessageBytes = 1 << 20
	}

	origins := newOriginPolicy(cfg.AllowedOrigins)
	s := &Server{
		hub:        hub,
		identities: identities,
		rooms:      rooms,
		messages:   messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		cfg: cc,
		log: log,
	}
	s.handlers = map[string]handlerFunc{
		EventJoinRoom:         s.handleJoinRoom,
		EventLeaveRoom:        s.handleLeaveRoom,
		EventSendMessage:      s.handleSendMessage,
		EventSendImageMessage: s.handleSendImage,
		EventTypingStart:      s.handleTyping(true),
		EventTypingStop:       s.handleTyping(false),
		EventUpdateStatus:     s.handleUpdateStatus,
	}
	return s
}

// HandleWS: GET /ws
// Токен: Authorization: Bearer <t>, затем ?token=, затем ?access_token=.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := credentialFrom(r)
	if token == "" {
		httputil.Error(w, http.StatusUnauthorized, "Authentication token required", nil)
		return
	}
	ident, err := s.identities.ResolveFromToken(r.Context(), token)
	if err != nil {
		s.log.Debug("ws handshake rejected", slog.Any("err", err))
		httputil.Error(w, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}
	if s.hub.Closed() {
		httputil.Error(w, http.StatusServiceUnavailable, "server is shutting down", nil)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// ответ клиенту уже записал upgrader
		s.log.Warn("ws upgrade failed", slog.Int64("user", ident.ID), slog.Any("err", err))
		return
	}

	c := newClient(conn, *ident, s.cfg, s.log)
	c.sendEvent(TypeConnected, ConnectedPayload{Message: "Successfully connected to Chat-Cord", User: *ident})
	if err := s.hub.register(c); err != nil {
		_ = conn.Close()
		return
	}
	c.log.Info("ws connected", slog.String("username", ident.Username))

	go c.writePump(s.cfg)
	go c.readPump(s.cfg)

	// обработчики не отменяются при закрытии сокета
	s.serve(context.WithoutCancel(r.Context()), c)
}

// serve обрабатывает события строго по порядку, затем выполняет teardown ровно один раз.
// inbound закрывает readPump после закрытия сокета, поэтому уже прочитанные
// события дорабатываются и после Close.
func (s *Server) serve(ctx context.Context, c *Client) {
	defer func() {
		c.Close()
		s.hub.disconnect(c)
		c.log.Info("ws disconnected")
	}()

	for ev := range c.inbound {
		s.dispatch(ctx, c, ev)
	}
}

func credentialFrom(r *http.Request) string {
	if t, ok := security.BearerToken(r.Header.Get("Authorization")); ok {
		return t
	}
	q := r.URL.Query()
	if t := strings.TrimSpace(q.Get("token")); t != "" {
		return t
	}
	return strings.TrimSpace(q.Get("access_token"))
}
