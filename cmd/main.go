package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chatcord/config"
	"github.com/cwrk-planet/chatcord/internal/ai"
	"github.com/cwrk-planet/chatcord/internal/postgres"
	"github.com/cwrk-planet/chatcord/internal/security"
	"github.com/cwrk-planet/chatcord/internal/service"
	grpcx "github.com/cwrk-planet/chatcord/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chatcord/internal/transport/http"
	"github.com/cwrk-planet/chatcord/internal/transport/ws"
	"github.com/cwrk-planet/chatcord/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
	})
	defer func() { _ = logger.Sync() }()
	slog.Info("starting chatcord",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()

	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.Postgres.MaxConnLifetimeOr(time.Hour),
		MaxConnIdleTime: cfg.Postgres.MaxConnIdleTimeOr(5 * time.Minute),
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(pool)
	roomRepo := postgres.NewRoomRepository(pool)
	memberRepo := postgres.NewMembershipRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)

	// --- security ---
	opts := []security.VerifierOption{security.WithClockSkew(cfg.JWT.ClockSkewOr(30 * time.Second))}
	if cfg.JWT.Issuer != "" {
		opts = append(opts, security.WithIssuer(cfg.JWT.Issuer))
	}
	if cfg.JWT.Audience != "" {
		opts = append(opts, security.WithAudience(cfg.JWT.Audience))
	}
	verifier, err := security.NewTokenVerifier(cfg.JWT.Secret, opts...)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	// --- WS hub (он же Notifier для REST) ---
	hub := ws.NewHub(logger.Component("ws"))

	// --- services ---
	aiClient := ai.NewClient(ai.Config{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.TimeoutOr(20 * time.Second),
	}, logger.Component("ai"))
	if !aiClient.Configured() {
		slog.Warn("ai api key not configured, summaries use the fallback generator")
	}

	svcLog := logger.Component("service")
	identitySvc := service.NewIdentityService(verifier, userRepo, svcLog)
	roomSvc := service.NewRoomService(roomRepo, memberRepo, hub, svcLog)
	chatSvc := service.NewChatService(roomRepo, messageRepo, hub, svcLog)
	aiSvc := service.NewAIService(roomRepo, messageRepo, aiClient, hub, svcLog)

	wsServer := ws.NewServer(hub, identitySvc, roomSvc, chatSvc, ws.Config{
		PingEvery:       cfg.WS.PingEveryOr(15 * time.Second),
		WriteWait:       cfg.WS.WriteWaitOr(5 * time.Second),
		SendBuffer:      cfg.WS.SendBuffer,
		InboundBuffer:   cfg.WS.InboundBuffer,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		AllowedOrigins:  cfg.WS.AllowedOrigins,
	}, logger.Component("ws"))

	// --- HTTP ---
	httpLog := logger.Component("http")
	handler := httpx.NewHandler(roomSvc, chatSvc, aiSvc, hub, httpLog)
	router := httpx.NewRouter(handler, identitySvc, wsServer.HandleWS, httpx.RouterConfig{
		RequestTimeout:   cfg.HTTP.RequestTimeoutOr(30 * time.Second),
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
		CORSMaxAge:       cfg.CORS.MaxAge,
	}, httpLog)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// --- gRPC (health + reflection) ---
	grpcSrv := grpcx.NewServer(pool, cfg.GRPC.HealthEveryOr(10*time.Second), logger.Component("grpc"))
	go grpcSrv.Watch(ctx)

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeoutOr(10*time.Second))
	defer cancel()

	// http.Server.Shutdown не ждёт hijacked соединения, их закрывает hub
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	if err := hub.Shutdown(ctxShutdown); err != nil {
		slog.Error("ws shutdown", "err", err)
	}
	stopWatch()
	grpcSrv.Stop()
	slog.Info("stopped")
}
