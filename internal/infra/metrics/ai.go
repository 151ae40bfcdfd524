package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		modelCallsLatencyMs,
		modelCallAttempts,
		modelRetries,
		modelTokensIn,
		modelTokensOut,
	)
}

var (
	modelCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_calls_latency_ms",
			Help:    "Model call latency distribution in milliseconds, retries included.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"model", "success"},
	)

	modelCallAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_call_attempts",
			Help:    "Attempts needed per completed model call.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"model"},
	)

	modelRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_retries_total",
			Help: "Retried model call attempts per model.",
		},
		[]string{"model"},
	)

	modelTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_tokens_in",
			Help: "Sum of prompt (input) tokens per model.",
		},
		[]string{"model"},
	)

	modelTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_tokens_out",
			Help: "Sum of completion (output) tokens per model.",
		},
		[]string{"model"},
	)
)

func ObserveModelCall(model string, attempts int, elapsed time.Duration, success bool) {
	modelCallsLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
	modelCallAttempts.WithLabelValues(norm(model)).Observe(float64(attempts))
}

func IncModelRetry(model string) {
	modelRetries.WithLabelValues(norm(model)).Inc()
}

func ObserveTokens(model string, promptTokens, completionTokens int) {
	modelTokensIn.WithLabelValues(norm(model)).Add(float64(promptTokens))
	modelTokensOut.WithLabelValues(norm(model)).Add(float64(completionTokens))
}
