package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName — имя, под которым публикуется статус чата в grpc.health.v1.
const ServiceName = "chatcord.v1.Chat"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server — операционный gRPC-порт: health + reflection.
// SERVING, пока Postgres отвечает на ping.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	db     Pinger
	every  time.Duration
	log    *slog.Logger
}

func NewServer(db Pinger, every time.Duration, log *slog.Logger) *Server {
	if every <= 0 {
		every = 10 * time.Second
	}
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{grpc: gs, health: hs, db: db, every: every, log: log}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Probe пингует БД один раз и выставляет статус.
func (s *Server) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.every)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("grpc health: postgres ping failed", slog.Any("err", err))
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Watch повторяет Probe каждые every до отмены ctx.
func (s *Server) Watch(ctx context.Context) {
	s.Probe(ctx)
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop: сначала NOT_SERVING для всех, затем graceful остановка.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
