// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Approvals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "approvals_total",
		Help:      "Approval signatures recorded, by subject kind and stage.",
	}, []string{"kind", "stage"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "rejections_total",
		Help:      "Subjects rejected, by subject kind and stage at rejection.",
	}, []string{"kind", "stage"})

	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "transactions_created_total",
		Help:      "Transactions recorded, by type and initial status.",
	}, []string{"type", "status"})

	LoanApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "loan_applications_total",
		Help:      "Loan applications evaluated, by outcome.",
	}, []string{"outcome"})

	ApprovalConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "approval_conflicts_total",
		Help:      "Approval writes that lost an optimistic-concurrency race.",
	})

	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "notifications_dispatched_total",
		Help:      "Notification intents handed to delivery sinks, by sink and result.",
	}, []string{"sink", "result"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chama",
		Name:      "job_runs_total",
		Help:      "Scheduled job executions, by job and result.",
	}, []string{"job", "result"})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chama",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
)
