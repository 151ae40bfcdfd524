package ai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ModelClient = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.ModelClient with the official SDK for
// deployments that talk to OpenAI directly instead of the routing API.
// SDK-internal retries are disabled so the retry decorator stays the only
// place that owns retry policy.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, defaultModel string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	return &OpenAIAdapter{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		),
		model: defaultModel,
	}, nil
}

func (o *OpenAIAdapter) Complete(ctx context.Context, modelID string, messages []adapter.Message) (adapter.Reply, error) {
	if modelID == "" {
		modelID = o.model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelID),
		Messages: toSDKMessages(messages),
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return adapter.Reply{}, classifySDKErr(err)
	}
	if len(resp.Choices) == 0 {
		return adapter.Reply{}, errors.New("openai: no choice content")
	}
	served := resp.Model
	if served == "" {
		served = modelID
	}
	return adapter.Reply{
		Text:  resp.Choices[0].Message.Content,
		Model: served,
		Usage: adapter.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	page, err := o.client.Models.List(ctx)
	if err != nil {
		return nil, classifySDKErr(err)
	}
	out := make([]adapter.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, adapter.ModelInfo{ID: m.ID, Name: m.ID})
	}
	return out, nil
}

func toSDKMessages(messages []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func classifySDKErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode, apiErr.Message)
	}
	return classifyTransportErr(err)
}
