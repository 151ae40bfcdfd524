package adapter

import "context"

// MessageSender is the outbound half of the messaging transport. The chat
// usecase hands it one segment at a time and awaits confirmation before
// sending the next, so platform rate limits apply backpressure naturally.
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// BotAdapter is the full messaging surface the command layer talks to.
type BotAdapter interface {
	MessageSender
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}
