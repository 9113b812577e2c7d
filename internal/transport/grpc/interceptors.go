package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultDeadline = 10 * time.Second

// Unary logging + recovery + timeout guard (если у вызова нет deadline)
func UnaryServerInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultDeadline)
			defer cancel()
		}

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc unary panic",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			log.Log(ctx, levelFor(info.FullMethod, err), "grpc unary",
				slog.String("method", info.FullMethod),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
				slog.String("code", status.Code(err).String()),
				slog.String("err", errString(err)))
		}()

		return handler(ctx, req)
	}
}

func StreamServerInterceptor(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc stream panic",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			log.Log(ss.Context(), levelFor(info.FullMethod, err), "grpc stream",
				slog.String("method", info.FullMethod),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
				slog.String("err", errString(err)))
		}()

		return handler(srv, ss)
	}
}

// health и reflection дёргаются часто, их пишем в debug
func levelFor(method string, err error) slog.Level {
	if err != nil {
		return slog.LevelWarn
	}
	if strings.HasPrefix(method, "/grpc.health.") || strings.HasPrefix(method, "/grpc.reflection.") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
