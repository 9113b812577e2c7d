package http

import (
	"log/slog"
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/chatcord/internal/transport/http/middleware"
	"github.com/cwrk-planet/chatcord/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	RequestTimeout   time.Duration
	AllowedOrigins   []string
	AllowCredentials bool
	CORSMaxAge       int
}

func NewRouter(h *Handler, identities httpmw.IdentityResolver, wsHandler http.HandlerFunc, cfg RouterConfig, log *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httputil.MiddlewareLogging(log))
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.HeaderRequestID},
		ExposedHeaders:   []string{httputil.HeaderRequestID},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}))

	r.Get("/", h.Banner)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// WS: токен проверяет сам gateway; без таймаута, соединение долгоживущее
	r.Get("/ws", wsHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Auth(identities, log))
		pr.Use(middlewareChi.Timeout(cfg.RequestTimeout))

		pr.Get("/stats", h.Stats)
		pr.Get("/ai/status", h.AIStatus)

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Get("/", h.ListRooms)
			rm.Post("/", h.CreateRoom)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Use(httpmw.RoomID)

				rr.Delete("/", h.DeleteRoom)
				rr.Post("/join", h.JoinRoom)
				rr.Delete("/leave", h.LeaveRoom)

				rr.Get("/messages", h.GetMessages)
				rr.Post("/messages", h.CreateMessage)
				rr.Post("/messages/image", h.CreateImageMessage)

				rr.Post("/ai/summary", h.GenerateSummary)
				rr.Get("/ai/summaries", h.SummaryHistory)
				rr.Post("/ai/response", h.GenerateResponse)
			})
		})
	})

	return r
}
