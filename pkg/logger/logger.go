// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	def *slog.Logger
	zl  *zap.Logger
)

// Init настраивает slog в зависимости от среды и делает его default.
func Init(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	} else {
		cfg.Env = normalizeEnv(string(cfg.Env))
	}
	if cfg.Service == "" {
		cfg.Service = "app"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var (
		h slog.Handler
		z *zap.Logger
	)
	switch cfg.Backend {
	case BackendZap:
		h, z = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	base := slog.New(h.WithAttrs(commonAttrs(cfg)))
	slog.SetDefault(base)

	mu.Lock()
	def, zl = base, z
	mu.Unlock()

	return base
}

// L returns the configured logger, initialising a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := def
	mu.RUnlock()
	if l != nil {
		return l
	}

	return Init(Config{})
}

// Component is L() tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// Sync flushes the zap backend, if it is in use.
func Sync() error {
	mu.RLock()
	z := zl
	mu.RUnlock()
	if z == nil {
		return nil
	}
	return z.Sync()
}

// Nop — логгер без вывода, для тестов.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
