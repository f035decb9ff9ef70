package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PollPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailboost_poll_passes_total",
		Help: "Total polling passes by outcome",
	}, []string{"outcome"})
	EmailsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailboost_emails_processed_total",
		Help: "Total notification emails handled by outcome",
	}, []string{"outcome"})
	Orders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailboost_orders_total",
		Help: "Total boost orders dispatched by metric and outcome",
	}, []string{"metric", "outcome"})
	SeenAccounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailboost_seen_accounts",
		Help: "Accounts that already received a follower boost",
	})
	PanelBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailboost_panel_balance",
		Help: "Last observed panel account balance",
	})
	PassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mailboost_pass_duration_seconds",
		Help:    "Polling pass duration seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(PollPasses, EmailsProcessed, Orders, SeenAccounts, PanelBalance, PassDuration)
}

// ObservePassDuration records how long a polling pass took.
func ObservePassDuration(start time.Time) {
	PassDuration.Observe(time.Since(start).Seconds())
}

// IncOrder increments the order counter for a metric/outcome pair.
func IncOrder(metric, outcome string) { Orders.WithLabelValues(metric, outcome).Inc() }

// IncEmail increments the processed-email counter for an outcome.
func IncEmail(outcome string) { EmailsProcessed.WithLabelValues(outcome).Inc() }

// IncPass increments the pass counter for an outcome.
func IncPass(outcome string) { PollPasses.WithLabelValues(outcome).Inc() }
