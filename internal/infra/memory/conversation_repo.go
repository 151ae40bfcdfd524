package memory

import (
	"context"
	"sync"

	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.ConversationRepository = (*ConversationRepo)(nil)

// ConversationRepo keeps every conversation in process memory. Get hands
// out copies and Save stores a copy back, so a failed exchange never leaves
// a half-mutated history behind.
type ConversationRepo struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
	locks map[string]*sync.Mutex
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{
		convs: make(map[string]*model.Conversation),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *ConversationRepo) Get(ctx context.Context, userID string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[userID]
	if !ok {
		c = model.NewConversation(userID)
		r.convs[userID] = c
	}
	return copyConversation(c), nil
}

func (r *ConversationRepo) Save(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.UserID] = copyConversation(conv)
	return nil
}

func (r *ConversationRepo) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.convs[userID]; ok {
		c.Clear()
	}
	return nil
}

// Lock serializes one user's exchanges. Locks are created lazily and kept
// for the process lifetime; the per-user cardinality is small.
func (r *ConversationRepo) Lock(userID string) func() {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func copyConversation(c *model.Conversation) *model.Conversation {
	out := *c
	out.Turns = make([]model.Turn, len(c.Turns))
	copy(out.Turns, c.Turns)
	return &out
}
