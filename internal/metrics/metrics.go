package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_runs_total",
			Help: "Total number of dispatch runs by result.",
		},
		[]string{"result"}, // completed, cancelled, schema_error, invalid_config
	)

	TicketsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_tickets_total",
			Help: "Total number of tickets dispatched by classification.",
		},
		[]string{"result"}, // success, failure
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_deliveries_total",
			Help: "Total number of delivery attempts by transport outcome and reason.",
		},
		[]string{"outcome", "reason"}, // outcome: completed, transport_error
	)

	DeliveryLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportflow_delivery_latency_seconds",
			Help:    "Latency of a single ticket POST, including failures.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	PacingDelaySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "supportflow_pacing_delay_seconds",
			Help:    "Inter-ticket pacing delays drawn during dispatch.",
			Buckets: []float64{.1, .25, .5, .75, 1, 1.5, 2, 3, 5},
		},
	)

	RunProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supportflow_run_progress",
			Help: "Tickets completed and total for the current run.",
		},
		[]string{"kind"}, // completed, total
	)

	TicketsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_receiver_tickets_total",
			Help: "Tickets received by the demo intake endpoint by response status.",
		},
		[]string{"status"},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(RunsTotal, TicketsTotal, DeliveriesTotal, DeliveryLatencySeconds, PacingDelaySeconds, RunProgress)
}

// MustRegisterReceiver registers the collectors used by the demo intake endpoint
func MustRegisterReceiver(reg *prometheus.Registry) {
	reg.MustRegister(TicketsReceivedTotal)
}

// RecordRun counts a finished (or aborted) dispatch run
func RecordRun(result string) {
	RunsTotal.WithLabelValues(result).Inc()
}

// RecordTicket counts one classified ticket
func RecordTicket(success bool) {
	if success {
		TicketsTotal.WithLabelValues("success").Inc()
		return
	}
	TicketsTotal.WithLabelValues("failure").Inc()
}

// RecordDelivery counts one HTTP attempt and observes its latency
func RecordDelivery(transportOK bool, reason string, latency time.Duration) {
	outcome := "completed"
	if !transportOK {
		outcome = "transport_error"
	}
	DeliveriesTotal.WithLabelValues(outcome, reason).Inc()
	DeliveryLatencySeconds.WithLabelValues(outcome).Observe(latency.Seconds())
}

// RecordPacing observes one inter-ticket delay
func RecordPacing(d time.Duration) {
	PacingDelaySeconds.Observe(d.Seconds())
}

// UpdateProgress sets the progress gauges for the current run
func UpdateProgress(completed, total int) {
	RunProgress.WithLabelValues("completed").Set(float64(completed))
	RunProgress.WithLabelValues("total").Set(float64(total))
}

// RecordReceived counts a ticket seen by the demo intake endpoint
func RecordReceived(status string) {
	TicketsReceivedTotal.WithLabelValues(status).Inc()
}
