// Package metrics defines and registers all custom Prometheus metrics for the
// tutor platform. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutor"

// ── Turn metrics ──────────────────────────────────────────────────────────────

// TurnsTotal counts orchestrated tutoring turns by outcome.
// Label:
//   - outcome: "completed", "generation_failed", "insufficient_tokens", "store_error"
var TurnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Total number of orchestrated tutoring turns, by outcome.",
	},
	[]string{"outcome"},
)

// GenerationDuration measures the latency of the generation service call.
// Label:
//   - outcome: "ok" or "error"
var GenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Duration of generation service calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// TokensDebitedTotal counts tokens successfully debited from balances.
var TokensDebitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_debited_total",
		Help:      "Total number of tokens debited from account balances.",
	},
)

// TokensCreditedTotal counts tokens credited back by compensating actions.
var TokensCreditedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_credited_total",
		Help:      "Total number of tokens refunded by compensating credits.",
	},
)

// UnreconciledCreditsTotal counts compensating credits that failed to persist
// and were handed to the reconciler. A non-zero value means a debit has not
// yet been paid back.
var UnreconciledCreditsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unreconciled_credits_total",
		Help:      "Total number of compensating credits that could not be persisted immediately.",
	},
)

// CreditsPendingReconciliation tracks credits currently queued for retry.
var CreditsPendingReconciliation = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "credits_pending_reconciliation",
		Help:      "Number of compensating credits waiting in the reconciler.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// AccountsRegisteredTotal counts successful registrations.
var AccountsRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts registered.",
	},
)

// AskDedupTotal counts idempotency checks on the ask endpoint.
// Label:
//   - result: "hit" (replay, rejected) or "miss" (new request, processed)
var AskDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ask_dedup_total",
		Help:      "Total number of ask idempotency checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
