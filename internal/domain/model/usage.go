package model

import "time"

// UsageRecord accumulates per-user exchange counters. It is append-only:
// one increment per completed exchange, written by that exchange only.
type UsageRecord struct {
	UserID           string
	Exchanges        int64
	PromptTokens     int64
	CompletionTokens int64
	LastExchangeAt   time.Time
}
