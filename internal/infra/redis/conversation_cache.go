package redis

import (
	"context"
	"encoding/json"
	"time"

	"telegram-openrouter-bridge/internal/domain/model"
)

// ConversationCache mirrors conversation snapshots into redis with a TTL.
// It is the optional persistence collaborator: the in-memory store stays
// authoritative, the cache lets a restarted process pick up recent
// conversations instead of starting cold.
type ConversationCache struct {
	client *Client
	ttl    time.Duration
}

func NewConversationCache(client *Client, ttl time.Duration) *ConversationCache {
	return &ConversationCache{client: client, ttl: ttl}
}

func key(userID string) string { return "conversation:" + userID }

func (c *ConversationCache) Store(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(conv.UserID), data, c.ttl)
}

// Load returns nil without error when no snapshot exists.
func (c *ConversationCache) Load(ctx context.Context, userID string) (*model.Conversation, error) {
	data, err := c.client.Get(ctx, key(userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *ConversationCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, key(userID))
}
