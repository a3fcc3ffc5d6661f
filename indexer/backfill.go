package indexer

import (
	"context"
	"math/big"
	"time"

	"github.com/johnniedom/FundBrave-sub002/boff"
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/logger"
	"github.com/johnniedom/FundBrave-sub002/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// backfill replays the pair's history from the checkpoint (or the configured
// start block) up to the latest confirmed head.
func (r *Runtime) backfill(ctx context.Context, p pair) error {
	checkpoint, err := database.FetchCheckpoint(r.db, p.chainID, p.address.Hex())
	if err != nil {
		return errors.Wrap(err, "backfill")
	}

	from := resumeFrom(checkpoint, p.startBlock)

	head, err := r.confirmedHead(ctx, p)
	if err != nil {
		return errors.Wrap(err, "backfill")
	}

	if from > head {
		logger.Debug("%s already synced to %d", p.name, head)
		return nil
	}

	logger.Info("Backfilling %s blocks %d to %d", p.name, from, head)
	r.markCheckpoint(p, 0, database.CheckpointSyncing, "")
	r.scanRange(ctx, p, from, head, true)
	return nil
}

// scanRange partitions [from, to] into batch-size windows. Each window is
// fetched once: a failed fetch is logged, counted and left for the sweep to
// heal, never retried inline. The checkpoint advances per successful window,
// not per event, so a crash mid-window only re-scans that window.
func (r *Runtime) scanRange(ctx context.Context, p pair, from, to uint64, advance bool) {
	batchSize := r.cfg.Indexer.BatchSize
	if batchSize == 0 {
		batchSize = 1
	}
	throttle := time.Duration(r.cfg.Indexer.ThrottleMillis) * time.Millisecond

	for start := from; start <= to; start += batchSize {
		if r.stopping(ctx) {
			return
		}

		end := min(start+batchSize-1, to)

		logs, err := r.fetchLogs(ctx, p, start, end)
		if err != nil {
			metrics.SkippedBatches.Inc()
			logger.Warn("Batch [%d, %d] of %s failed, leaving for the sweep: %s", start, end, p.name, err)
			continue
		}

		for _, lg := range logs {
			r.dispatchLog(p, lg)
		}

		if advance {
			r.markCheckpoint(p, end, database.CheckpointSyncing, "")
		}

		if throttle > 0 && end < to {
			r.clock.Sleep(throttle)
		}
	}
}

func (r *Runtime) fetchLogs(ctx context.Context, p pair, from, to uint64) ([]ethTypes.Log, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{p.address},
	}
	return p.client.FilterLogs(fetchCtx, query)
}

// confirmedHead returns the head minus the configured confirmation depth,
// retried with backoff since the whole pair stalls without it.
func (r *Runtime) confirmedHead(ctx context.Context, p pair) (uint64, error) {
	head, err := boff.RetryWithMaxElapsed(ctx, func() (uint64, error) {
		headCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
		defer cancel()
		return p.client.HeadNumber(headCtx)
	}, "head number "+p.name)
	if err != nil {
		return 0, err
	}

	if head < r.cfg.Indexer.Confirmations {
		return 0, nil
	}
	return head - r.cfg.Indexer.Confirmations, nil
}
