package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimal = `
http:
  addr: ":8080"
grpc:
  addr: ":9090"
postgres:
  dsn: postgres://localhost/chat
jwt:
  secret: s3cret
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Service != "chatcord" || cfg.Logging.Env != "dev" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
	if cfg.WS.SendBuffer != 256 || cfg.WS.InboundBuffer != 32 || cfg.WS.MaxMessageBytes != 1<<20 {
		t.Fatalf("ws defaults not applied: %+v", cfg.WS)
	}
	if cfg.AI.Model != "gpt-4.1-nano" {
		t.Fatalf("ai model default = %q", cfg.AI.Model)
	}
	if got := cfg.WS.PingEveryOr(15 * time.Second); got != 15*time.Second {
		t.Fatalf("PingEveryOr = %v", got)
	}
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
ws:
  pingEvery: 3s
  writeWait: 1s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.WS.PingEveryOr(time.Minute); got != 3*time.Second {
		t.Fatalf("PingEveryOr = %v", got)
	}
	if got := cfg.WS.WriteWaitOr(time.Minute); got != time.Second {
		t.Fatalf("WriteWaitOr = %v", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/chat")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://env/chat" {
		t.Fatalf("dsn = %q", cfg.Postgres.DSN)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.AI.APIKey != "sk-env" {
		t.Fatalf("api key = %q", cfg.AI.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no http addr", "grpc:\n  addr: \":9090\"\npostgres:\n  dsn: x\njwt:\n  secret: s\n"},
		{"no secret", "http:\n  addr: \":8080\"\ngrpc:\n  addr: \":9090\"\npostgres:\n  dsn: x\n"},
		{"bad duration", minimal + "ws:\n  pingEvery: soon\n"},
		{"negative buffer", minimal + "ws:\n  sendBuffer: -1\n"},
		{"broken yaml", "http: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DATABASE_URL", "")
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfig_Path(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, minimal))
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}
