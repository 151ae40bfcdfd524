package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		commandsTotal,
		segmentsSent,
		deliveryFailures,
		exchangesTotal,
	)
}

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Handled bot commands by name.",
		},
		[]string{"command"},
	)

	segmentsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_segments_sent_total",
			Help: "Outbound reply segments successfully delivered.",
		},
	)

	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_delivery_failures_total",
			Help: "Exchanges aborted mid-delivery due to a failed segment send.",
		},
	)

	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_exchanges_total",
			Help: "Completed chat exchanges by outcome (ok/model_error/delivery_error).",
		},
		[]string{"outcome"},
	)
)

func IncCommand(name string)     { commandsTotal.WithLabelValues(norm(name)).Inc() }
func AddSegmentsSent(n int)      { segmentsSent.Add(float64(n)) }
func IncDeliveryFailure()        { deliveryFailures.Inc() }
func IncExchange(outcome string) { exchangesTotal.WithLabelValues(norm(outcome)).Inc() }
