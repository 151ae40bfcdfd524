package repository

import (
	"context"

	"telegram-openrouter-bridge/internal/domain/model"
)

// ConversationRepository owns per-user conversation state. Get never fails
// for a well-formed userID: a missing conversation is created empty.
type ConversationRepository interface {
	Get(ctx context.Context, userID string) (*model.Conversation, error)
	Save(ctx context.Context, conv *model.Conversation) error
	Clear(ctx context.Context, userID string) error

	// Lock serializes all access to one user's conversation. The returned
	// func releases the lock. Different users never contend.
	Lock(userID string) (unlock func())
}
