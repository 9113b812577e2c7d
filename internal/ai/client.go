package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const placeholderKey = "your_openai_api_key_here"

var (
	ErrNotConfigured = errors.New("ai: provider api key not configured")
	ErrEmptyReply    = errors.New("ai: provider returned no content")
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client ходит в OpenAI-совместимый /chat/completions.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg Config, log *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Configured() bool {
	key := strings.TrimSpace(c.cfg.APIKey)
	return key != "" && key != placeholderKey
}

func (c *Client) Model() string { return c.cfg.Model }

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// Complete отправляет диалог и возвращает текст первого choice.
// maxTokens/temperature <= 0 берутся из конфига.
func (c *Client) Complete(ctx context.Context, msgs []ChatMessage, maxTokens int, temperature float64) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai: read response: %w", err)
	}
	c.log.Debug("ai completion", "status", resp.StatusCode, "model", c.cfg.Model, "dur_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("ai: provider status %d: %s", resp.StatusCode, msg)
	}

	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}
