package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"`
	// как часто проверять Postgres для health-статуса
	HealthEvery string `yaml:"healthEvery"`
}

type HTTP struct {
	Addr            string `yaml:"addr"`
	RequestTimeout  string `yaml:"requestTimeout"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // chatcord
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
}

type Postgres struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	MaxConnLifetime string `yaml:"maxConnLifetime"`
	MaxConnIdleTime string `yaml:"maxConnIdleTime"`
}

type JWT struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
	ClockSkew string `yaml:"clockSkew"`
}

type WS struct {
	PingEvery       string   `yaml:"pingEvery"`
	WriteWait       string   `yaml:"writeWait"`
	SendBuffer      int      `yaml:"sendBuffer"`
	InboundBuffer   int      `yaml:"inboundBuffer"`
	MaxMessageBytes int64    `yaml:"maxMessageBytes"`
	AllowedOrigins  []string `yaml:"allowedOrigins"`
}

type CORS struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

type AI struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseURL"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	JWT      JWT      `yaml:"jwt"`
	WS       WS       `yaml:"ws"`
	CORS     CORS     `yaml:"cors"`
	AI       AI       `yaml:"ai"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// секреты можно не держать в yaml
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		c.AI.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.WS.SendBuffer < 0 || c.WS.InboundBuffer < 0 || c.WS.MaxMessageBytes < 0 {
		return errors.New("ws buffers must not be negative")
	}
	for _, d := range []struct{ name, value string }{
		{"http.requestTimeout", c.HTTP.RequestTimeout},
		{"http.shutdownTimeout", c.HTTP.ShutdownTimeout},
		{"grpc.healthEvery", c.GRPC.HealthEvery},
		{"postgres.maxConnLifetime", c.Postgres.MaxConnLifetime},
		{"postgres.maxConnIdleTime", c.Postgres.MaxConnIdleTime},
		{"jwt.clockSkew", c.JWT.ClockSkew},
		{"ws.pingEvery", c.WS.PingEvery},
		{"ws.writeWait", c.WS.WriteWait},
		{"ai.timeout", c.AI.Timeout},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "chatcord"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 256
	}
	if c.WS.InboundBuffer == 0 {
		c.WS.InboundBuffer = 32
	}
	if c.WS.MaxMessageBytes == 0 {
		c.WS.MaxMessageBytes = 1 << 20
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4.1-nano"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 300
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	return nil
}

func (h HTTP) RequestTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, h.RequestTimeout)
}

func (h HTTP) ShutdownTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, h.ShutdownTimeout)
}

func (g GRPC) HealthEveryOr(def time.Duration) time.Duration {
	return parseDurationOr(def, g.HealthEvery)
}

func (p Postgres) MaxConnLifetimeOr(def time.Duration) time.Duration {
	return parseDurationOr(def, p.MaxConnLifetime)
}

func (p Postgres) MaxConnIdleTimeOr(def time.Duration) time.Duration {
	return parseDurationOr(def, p.MaxConnIdleTime)
}

func (j JWT) ClockSkewOr(def time.Duration) time.Duration {
	return parseDurationOr(def, j.ClockSkew)
}

func (w WS) PingEveryOr(def time.Duration) time.Duration {
	return parseDurationOr(def, w.PingEvery)
}

func (w WS) WriteWaitOr(def time.Duration) time.Duration {
	return parseDurationOr(def, w.WriteWait)
}

func (a AI) TimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, a.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
