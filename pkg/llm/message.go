// Package llm holds the conversation types shared by the chat client and the
// wire shapes exchanged with the completion service.
package llm

import "time"

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single turn in a conversation.
// Timestamp is stored as Unix milliseconds so backups stay interchangeable
// with the web client.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage creates a message stamped with the given time.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: at.UnixMilli(),
	}
}

// Time returns the message creation time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Session is a named, independently addressable conversation.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	CreatedAt    int64     `json:"createdAt"`
}

// EffectiveSystemPrompt returns the session override, or fallback when the
// session has none.
func (s Session) EffectiveSystemPrompt(fallback string) string {
	if s.SystemPrompt != "" {
		return s.SystemPrompt
	}
	return fallback
}
