package indexer

import (
	"github.com/johnniedom/FundBrave-sub002/events"
	"github.com/johnniedom/FundBrave-sub002/ledger"
	"github.com/johnniedom/FundBrave-sub002/logger"
	"github.com/johnniedom/FundBrave-sub002/metrics"

	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// dispatchLog is the single path every log takes, whether it arrived via
// backfill, live subscription or the reconciliation sweep. Failures are
// contained to the one log; the surrounding scan always continues.
func (r *Runtime) dispatchLog(p pair, lg ethTypes.Log) {
	ev, err := events.Decode(p.kind, lg)
	if err != nil {
		metrics.DecodeFailures.Inc()
		logger.Warn("Decode failed for %s log %s:%d: %s", p.name, lg.TxHash.Hex(), lg.Index, err)
		return
	}

	if unknown, ok := ev.(*events.Unknown); ok {
		metrics.UnknownEvents.Inc()
		logger.Debug("Unknown event topic %s from %s, ignoring", unknown.Topic.Hex(), p.name)
		return
	}

	meta := ledger.TxMeta{
		ChainID:         p.chainID,
		ContractAddress: lg.Address.Hex(),
		TxHash:          lg.TxHash.Hex(),
		LogIndex:        lg.Index,
		BlockNumber:     lg.BlockNumber,
	}

	err = ledger.Apply(r.db, p.kind, ev, meta)
	switch {
	case err == nil:
		metrics.AppliedEvents.Inc()
	case errors.Is(err, ledger.ErrDuplicateEvent):
		metrics.DuplicateEvents.Inc()
		logger.Debug("Already applied %s %s:%d", ev.EventName(), lg.TxHash.Hex(), lg.Index)
	case errors.Is(err, ledger.ErrNoHandler):
		logger.Debug("No handler for %s event %s, ignoring", p.kind, ev.EventName())
	case errors.Is(err, ledger.ErrMissingReference), errors.Is(err, ledger.ErrPrecondition):
		metrics.SkippedEvents.Inc()
		logger.Warn("Skipping %s %s:%d: %s", ev.EventName(), lg.TxHash.Hex(), lg.Index, err)
	default:
		logger.Error("Apply of %s %s:%d failed: %s", ev.EventName(), lg.TxHash.Hex(), lg.Index, err)
	}
}
