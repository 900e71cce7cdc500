package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutorlab/tutor-platform/internal/api/metrics"
)

const (
	defaultWorkers       = 4
	channelBuffer        = 256
	defaultRetryInterval = 5 * time.Second
	creditTimeout        = 10 * time.Second
)

// CreditFunc applies a single compensating credit at the store.
type CreditFunc func(ctx context.Context, username string, amount int) (int, error)

type pendingCredit struct {
	Username string
	Amount   int
}

// Reconciler retries compensating credits that failed to persist, so a
// debited token whose refund was rejected by the store is eventually paid
// back instead of silently lost. Credits are routed to a fixed set of
// workers by consistent hashing on the username, so retries for one account
// are applied in order.
type Reconciler struct {
	workers       []chan pendingCredit
	credit        CreditFunc
	retryInterval time.Duration
	log           zerolog.Logger
}

// NewReconciler creates a Reconciler with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewReconciler(numWorkers int, credit CreditFunc, log zerolog.Logger) *Reconciler {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Reconciler{
		workers:       make([]chan pendingCredit, numWorkers),
		credit:        credit,
		retryInterval: defaultRetryInterval,
		log:           log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan pendingCredit, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// anything still pending at shutdown is logged as unreconciled.
func (r *Reconciler) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// EnqueueCredit queues a failed compensating credit for retry. The call is
// non-blocking up to channelBuffer capacity.
func (r *Reconciler) EnqueueCredit(username string, amount int) {
	metrics.CreditsPendingReconciliation.Inc()
	r.workers[r.shardIndex(username)] <- pendingCredit{Username: username, Amount: amount}
}

// shardIndex maps a username deterministically to a worker index.
func (r *Reconciler) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32()) % len(r.workers)
}

func (r *Reconciler) runWorker(ctx context.Context, id int, ch <-chan pendingCredit) {
	for {
		select {
		case <-ctx.Done():
			return
		case pending, ok := <-ch:
			if !ok {
				return
			}
			r.settle(ctx, id, pending)
		}
	}
}

// settle retries a single credit until the store accepts it or the worker is
// shut down.
func (r *Reconciler) settle(ctx context.Context, workerID int, pending pendingCredit) {
	for attempt := 1; ; attempt++ {
		creditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), creditTimeout)
		balance, err := r.credit(creditCtx, pending.Username, pending.Amount)
		cancel()

		if err == nil {
			metrics.CreditsPendingReconciliation.Dec()
			r.log.Info().
				Str("username", pending.Username).
				Int("amount", pending.Amount).
				Int("balance", balance).
				Int("attempts", attempt).
				Msg("unreconciled credit settled")
			return
		}

		r.log.Warn().Err(err).
			Str("username", pending.Username).
			Int("worker_id", workerID).
			Int("attempt", attempt).
			Msg("credit retry failed")

		select {
		case <-ctx.Done():
			r.log.Error().
				Str("username", pending.Username).
				Int("amount", pending.Amount).
				Msg("shutting down with unreconciled credit")
			return
		case <-time.After(r.retryInterval):
		}
	}
}
