package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func msg(user, content string, kind domain.MessageKind, isAI bool) domain.Message {
	return domain.Message{
		Content: content,
		Type:    kind,
		IsAI:    isAI,
		User:    &domain.Identity{Username: user},
	}
}

func TestConfigured(t *testing.T) {
	cases := map[string]bool{
		"":                         false,
		"   ":                      false,
		"your_openai_api_key_here": false,
		"sk-live":                  true,
	}
	for key, want := range cases {
		c := NewClient(Config{APIKey: key}, nopLogger())
		if got := c.Configured(); got != want {
			t.Errorf("Configured(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestComplete_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, nopLogger())
	if _, err := c.Complete(context.Background(), nil, 0, 0); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSummarize_SendsConversation(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  people said hi  "}}]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-4.1-nano"}, nopLogger())
	history := []domain.Message{
		msg("alice", "hello", domain.KindText, false),
		msg("bob", "http://img", domain.KindImage, false),
		msg("bot", "old summary", domain.KindText, true),
		msg("bob", "hi alice", domain.KindText, false),
	}

	out, err := c.Summarize(context.Background(), history, "General")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "people said hi" {
		t.Fatalf("summary = %q", out)
	}
	if got.Model != "gpt-4.1-nano" || got.MaxTokens != 250 {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	prompt := got.Messages[1].Content
	if !strings.Contains(prompt, "alice: hello\nbob: hi alice") {
		t.Fatalf("prompt misses conversation: %q", prompt)
	}
	if strings.Contains(prompt, "old summary") || strings.Contains(prompt, "http://img") {
		t.Fatalf("prompt includes ai/image messages: %q", prompt)
	}
}

func TestSummarize_NoText(t *testing.T) {
	c := NewClient(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"}, nopLogger())
	out, err := c.Summarize(context.Background(), nil, "General")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "No text messages to summarize in this room." {
		t.Fatalf("summary = %q", out)
	}
}

func TestComplete_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nopLogger())
	_, err := c.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "x"}}, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v", err)
	}
}

func TestComplete_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nopLogger())
	if _, err := c.Complete(context.Background(), nil, 0, 0); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("err = %v, want ErrEmptyReply", err)
	}
}

func TestFallbackSummary(t *testing.T) {
	if got := FallbackSummary(nil, "General"); got != "No messages to summarize in this room." {
		t.Fatalf("empty = %q", got)
	}

	long := strings.Repeat("x", 60)
	history := []domain.Message{
		msg("alice", "hello", domain.KindText, false),
		msg("bob", long, domain.KindText, false),
		msg("alice", "again", domain.KindText, false),
		msg("bot", "ignored", domain.KindText, true),
	}
	out := FallbackSummary(history, "General")

	for _, want := range []string{
		"Room Summary for General",
		"3 messages from 2 participants",
		"Active users: alice, bob",
		"2. bob: " + strings.Repeat("x", 50) + "...",
		"3. alice: again",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ignored") {
		t.Errorf("summary includes ai message:\n%s", out)
	}
}
