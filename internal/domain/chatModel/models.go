package chatModel

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrSessionNotFound is returned when a caller supplies a non-empty session
// id that the store does not know. The caller decides whether to surface it
// or start a fresh session - we never silently swap ids.
var ErrSessionNotFound = errors.New("session not found")

// Turn is one message of a conversation. Turns are append-only and ordered.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the ordered conversation between one user and the assistant.
// The in-process store caches it; the durable store is the source of truth
// across restarts.
type Session struct {
	SessionId string    `json:"session_id"`
	UserId    string    `json:"user_id"`
	Turns     []Turn    `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}
