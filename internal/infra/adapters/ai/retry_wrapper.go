package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/infra/metrics"
)

// Compile-time check
var _ adapter.ModelClient = (*retryClient)(nil)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 8 * time.Second
	listTimeout    = 30 * time.Second
)

// retryClient decorates a ModelClient with bounded retries and a
// per-attempt timeout. Transient failures (network, rate limit, 5xx,
// timeout) are retried with exponential backoff; definitive failures
// (auth, invalid model, other 4xx) surface immediately.
type retryClient struct {
	inner    adapter.ModelClient
	attempts int
	// timeout yields the per-attempt bound; read per call because admins
	// can change it at runtime.
	timeout func() time.Duration
	base    time.Duration
	log     *zerolog.Logger
}

func NewRetryClient(inner adapter.ModelClient, attempts int, timeout func() time.Duration, logger *zerolog.Logger) adapter.ModelClient {
	if attempts <= 0 {
		attempts = 3
	}
	return &retryClient{inner: inner, attempts: attempts, timeout: timeout, base: retryBaseDelay, log: logger}
}

func (c *retryClient) Complete(ctx context.Context, model string, messages []adapter.Message) (adapter.Reply, error) {
	var lastErr error
	start := time.Now()
	for attempt := 1; attempt <= c.attempts; attempt++ {
		reply, err := c.completeOnce(ctx, model, messages)
		if err == nil {
			metrics.ObserveModelCall(model, attempt, time.Since(start), true)
			return reply, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			metrics.ObserveModelCall(model, attempt, time.Since(start), false)
			return adapter.Reply{}, err
		}
		if attempt == c.attempts {
			break
		}
		delay := backoff(c.base, attempt)
		c.log.Warn().
			Str("model", model).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("model call failed, retrying")
		metrics.IncModelRetry(model)
		select {
		case <-ctx.Done():
			metrics.ObserveModelCall(model, attempt, time.Since(start), false)
			return adapter.Reply{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	metrics.ObserveModelCall(model, c.attempts, time.Since(start), false)
	return adapter.Reply{}, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *retryClient) completeOnce(ctx context.Context, model string, messages []adapter.Message) (adapter.Reply, error) {
	if d := c.timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return c.inner.Complete(ctx, model, messages)
}

// ListModels is a single attempt with a short bound; a stale model list is
// not worth a retry storm.
func (c *retryClient) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	return c.inner.ListModels(ctx)
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrModelTransient) ||
		errors.Is(err, domain.ErrModelRateLimited) ||
		errors.Is(err, domain.ErrModelTimeout)
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}
