package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AppliedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_applied_events_total",
		Help: "Ledger mutations durably committed.",
	})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_duplicate_events_total",
		Help: "Events absorbed because their (txHash, logIndex, chainId) key was already applied.",
	})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_decode_failures_total",
		Help: "Logs that matched a known topic but could not be unpacked.",
	})

	UnknownEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_unknown_events_total",
		Help: "Logs from watched contracts with an unrecognized event topic.",
	})

	SkippedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_skipped_events_total",
		Help: "Events skipped because a referenced aggregate was missing or a precondition failed.",
	})

	SkippedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundbrave_indexer_skipped_batches_total",
		Help: "Log batch fetches that failed and were left for the reconciliation sweep.",
	})
)
