package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails delivered",
		},
	)

	EmailsRetried = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_retries_total",
			Help: "Total delivery attempts rescheduled for retry",
		},
	)

	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total emails that exhausted their retry budget",
		},
	)

	QueueCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_cycles_total",
			Help: "Total queue processing cycles",
		},
	)
)

func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailsRetried)
	prometheus.MustRegister(EmailsFailed)
	prometheus.MustRegister(QueueCycles)
}
