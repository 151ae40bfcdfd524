package model

import (
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message exchange unit within a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned,omitempty"` // leading system turns survive eviction
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the aggregate root for one user's running dialogue.
// History is bounded: as turns are appended past maxTurns the oldest
// unpinned turns are evicted first, so the request payload stays bounded.
type Conversation struct {
	UserID       string    `json:"user_id"`
	Turns        []Turn    `json:"turns"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func NewConversation(userID string) *Conversation {
	return &Conversation{
		UserID:       userID,
		Turns:        make([]Turn, 0, 8),
		LastActiveAt: time.Now(),
	}
}

// Append adds a turn and evicts the oldest unpinned turns once the
// history exceeds maxTurns. maxTurns <= 0 means unbounded.
func (c *Conversation) Append(role, content string, maxTurns int) {
	c.Turns = append(c.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.LastActiveAt = time.Now()
	c.evict(maxTurns)
}

// Pin marks a leading system turn so eviction never drops it.
func (c *Conversation) Pin(content string) {
	turn := Turn{Role: RoleSystem, Content: content, Pinned: true, Timestamp: time.Now()}
	if len(c.Turns) > 0 && c.Turns[0].Pinned {
		c.Turns[0] = turn
		return
	}
	c.Turns = append([]Turn{turn}, c.Turns...)
}

func (c *Conversation) evict(maxTurns int) {
	if maxTurns <= 0 || len(c.Turns) <= maxTurns {
		return
	}
	keep := 0
	for keep < len(c.Turns) && c.Turns[keep].Pinned {
		keep++
	}
	excess := len(c.Turns) - maxTurns
	if excess > len(c.Turns)-keep {
		excess = len(c.Turns) - keep
	}
	c.Turns = append(c.Turns[:keep], c.Turns[keep+excess:]...)
}

// Clear drops the whole history. The model preference lives in settings
// and is untouched.
func (c *Conversation) Clear() {
	c.Turns = c.Turns[:0]
	c.LastActiveAt = time.Now()
}
