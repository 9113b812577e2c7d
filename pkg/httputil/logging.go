package httputil

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// MiddlewareLogging пишет одну запись на запрос; уровень зависит от статуса.
func MiddlewareLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &logResponseWriter{ResponseWriter: w}

			next.ServeHTTP(lrw, r)

			level := slog.LevelInfo
			switch {
			case lrw.hijacked:
				level = slog.LevelDebug
			case lrw.status >= 500:
				level = slog.LevelError
			case lrw.status >= 400:
				level = slog.LevelWarn
			}

			l.LogAttrs(r.Context(), level, "http request",
				ReqIDAttr(r.Context()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", lrw.status),
				slog.Int("bytes", lrw.bytes),
				slog.Bool("upgraded", lrw.hijacked),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_ip", r.RemoteAddr),
			)
		})
	}
}

type logResponseWriter struct {
	http.ResponseWriter
	status   int
	bytes    int
	hijacked bool
}

func (w *logResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	return n, err
}

// Hijack нужен для websocket upgrade через эту обёртку.
func (w *logResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err == nil {
		w.hijacked = true
		w.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (w *logResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
