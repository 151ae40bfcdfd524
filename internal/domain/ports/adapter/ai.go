package adapter

import "context"

// Message is one chat message as sent to a model provider.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage as reported by the provider for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Reply is the result of one completion call. Model is the identifier the
// provider actually served, which may differ from the requested one when
// the routing API falls back.
type Reply struct {
	Text  string
	Model string
	Usage Usage
}

// ModelInfo describes a routable model.
type ModelInfo struct {
	ID          string
	Name        string
	Description string
}

// ModelClient is the port for LLM chat completion.
type ModelClient interface {
	// Complete sends the ordered history (oldest first) and returns the
	// full reply text before any chunking.
	Complete(ctx context.Context, model string, messages []Message) (Reply, error)

	ListModels(ctx context.Context) ([]ModelInfo, error)
}
