package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ModelClient = (*OpenRouterAdapter)(nil)

// OpenRouterAdapter implements adapter.ModelClient against the OpenRouter
// routing API (OpenAI-compatible wire format).
// Base URL defaults to https://openrouter.ai/api/v1 (configurable).
// Chat completions path: /chat/completions, model list: /models.
// Authorization: Bearer <OPENROUTER_API_KEY>
type OpenRouterAdapter struct {
	apiKey string
	base   string
	model  string // fallback when the caller passes an empty model
	client *http.Client
}

func NewOpenRouterAdapter(apiKey, model, base string) (*OpenRouterAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter api key empty")
	}
	if base == "" {
		base = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		// No Timeout on the client: per-attempt deadlines come from ctx.
		client: &http.Client{},
	}, nil
}

func (o *OpenRouterAdapter) Complete(ctx context.Context, model string, messages []adapter.Message) (adapter.Reply, error) {
	if model == "" {
		model = o.model
	}
	reqBody := struct {
		Model    string            `json:"model"`
		Messages []adapter.Message `json:"messages"`
	}{Model: model, Messages: messages}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return adapter.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return adapter.Reply{}, classifyTransportErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.Reply{}, classifyStatus(resp.StatusCode, readSnippet(resp.Body))
	}

	var payload struct {
		Model   string `json:"model"`
		Choices []struct {
			Message adapter.Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return adapter.Reply{}, fmt.Errorf("openrouter decode: %w", err)
	}

	served := payload.Model
	if served == "" {
		served = model
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return adapter.Reply{
				Text:  c.Message.Content,
				Model: served,
				Usage: adapter.Usage{
					PromptTokens:     payload.Usage.PromptTokens,
					CompletionTokens: payload.Usage.CompletionTokens,
					TotalTokens:      payload.Usage.TotalTokens,
				},
			}, nil
		}
	}
	return adapter.Reply{}, errors.New("openrouter: no choice content")
}

func (o *OpenRouterAdapter) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, readSnippet(resp.Body))
	}

	var payload struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openrouter decode: %w", err)
	}
	out := make([]adapter.ModelInfo, 0, len(payload.Data))
	for _, m := range payload.Data {
		out = append(out, adapter.ModelInfo{ID: m.ID, Name: m.Name, Description: m.Description})
	}
	return out, nil
}

// classifyStatus maps an HTTP status to the domain error taxonomy so the
// retry decorator can tell transient failures from definitive ones.
func classifyStatus(status int, snippet string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: http %d: %s", domain.ErrModelAuth, status, snippet)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: http %d: %s", domain.ErrInvalidModel, status, snippet)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d", domain.ErrModelRateLimited, status)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: http %d", domain.ErrModelTimeout, status)
	case status >= 500:
		return fmt.Errorf("%w: http %d: %s", domain.ErrModelTransient, status, snippet)
	default:
		return fmt.Errorf("model request rejected: http %d: %s", status, snippet)
	}
}

func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrModelTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrModelTransient, err)
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 400))
	return strings.TrimSpace(string(b))
}
