package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

const (
	summarySystem  = "You are a helpful assistant that summarizes chat conversations. Be concise but informative."
	responseSystem = "You are a helpful AI assistant in a chat room. Be friendly, concise, and helpful."

	summaryWindow = 20
	previewRunes  = 50
	recentInTail  = 5
)

// Summarize просит модель кратко пересказать переписку комнаты.
// messages ожидаются в хронологическом порядке.
func (c *Client) Summarize(ctx context.Context, messages []domain.Message, roomName string) (string, error) {
	lines := conversationLines(humanText(messages), "Unknown")
	if len(lines) > summaryWindow {
		lines = lines[len(lines)-summaryWindow:]
	}
	if len(lines) == 0 {
		return "No text messages to summarize in this room.", nil
	}

	prompt := fmt.Sprintf(`Please provide a concise summary of the following chat conversation from the room %q:

%s

Summary guidelines:
- Keep it under 200 words
- Highlight main topics discussed
- Mention key participants if relevant
- Focus on important information and decisions
- Use a friendly, conversational tone`, roomName, strings.Join(lines, "\n"))

	return c.Complete(ctx, []ChatMessage{
		{Role: "system", Content: summarySystem},
		{Role: "user", Content: prompt},
	}, 250, 0.7)
}

// Respond отвечает на вопрос пользователя с учётом последних сообщений.
func (c *Client) Respond(ctx context.Context, history []domain.Message, roomName, question string) (string, error) {
	var text []domain.Message
	for _, m := range history {
		if m.Type == domain.KindText {
			text = append(text, m)
		}
	}
	prompt := fmt.Sprintf("Based on the recent conversation in room %q:\n\n%s\n\nUser question: %s\n\nPlease provide a helpful response:",
		roomName, strings.Join(conversationLines(text, "User"), "\n"), question)

	return c.Complete(ctx, []ChatMessage{
		{Role: "system", Content: responseSystem},
		{Role: "user", Content: prompt},
	}, 200, 0.8)
}

// FallbackSummary строит простую сводку без обращения к модели.
func FallbackSummary(messages []domain.Message, roomName string) string {
	text := humanText(messages)
	if len(text) == 0 {
		return "No messages to summarize in this room."
	}

	var participants []string
	seen := make(map[string]struct{})
	for _, m := range text {
		name := author(m, "")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		participants = append(participants, name)
	}

	recent := text
	if len(recent) > recentInTail {
		recent = recent[len(recent)-recentInTail:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Room Summary for %s\n\n", roomName)
	fmt.Fprintf(&b, "%d messages from %d participants\n", len(text), len(participants))
	fmt.Fprintf(&b, "Active users: %s\n\n", strings.Join(participants, ", "))
	b.WriteString("Recent activity:\n")
	for i, m := range recent {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, author(m, "Unknown"), preview(m.Content))
	}
	b.WriteString("\nNote: This is a basic summary. Configure OpenAI API for AI-powered summaries.")
	return b.String()
}

// только текст от людей, без AI-сообщений
func humanText(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Type == domain.KindText && !m.IsAI {
			out = append(out, m)
		}
	}
	return out
}

func conversationLines(messages []domain.Message, unknown string) []string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, author(m, unknown)+": "+m.Content)
	}
	return lines
}

func author(m domain.Message, unknown string) string {
	if m.User != nil && m.User.Username != "" {
		return m.User.Username
	}
	return unknown
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}
