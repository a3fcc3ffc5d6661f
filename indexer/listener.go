package indexer

import (
	"context"
	"time"

	"github.com/johnniedom/FundBrave-sub002/chain"
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"
	"github.com/johnniedom/FundBrave-sub002/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"
)

// listen registers one push subscription per (chain, contract, event) and
// feeds every notification through the same dispatch path as backfill. Its
// guarantee is "whatever arrives is processed correctly"; delivery
// completeness belongs to the reconciliation sweep. Endpoints without
// notification support fall back to checkpoint-driven polling.
func (r *Runtime) listen(ctx context.Context, p pair) {
	g, gctx := errgroup.WithContext(ctx)
	subscribed := 0

	for _, topic := range events.Topics(p.kind) {
		query := ethereum.FilterQuery{
			Addresses: []common.Address{p.address},
			Topics:    [][]common.Hash{{topic}},
		}

		ch := make(chan ethTypes.Log, 64)
		sub, err := p.client.SubscribeFilterLogs(gctx, query, ch)
		if err != nil {
			logger.Debug("Subscription for %s topic %s unavailable: %s", p.name, topic.Hex(), err)
			break
		}

		subscribed++
		g.Go(func() error {
			r.consumeSubscription(gctx, p, sub, ch)
			return nil
		})
	}

	if subscribed == 0 {
		logger.Info("No push subscriptions for %s, polling for new blocks", p.name)
		r.poll(ctx, p)
		return
	}

	logger.Info("Listening on %d event subscriptions for %s", subscribed, p.name)
	_ = g.Wait()
}

// consumeSubscription drains one managed subscription until it fails or the
// context ends. A subscription error just ends the task; the sweep bounds
// the staleness of anything missed.
func (r *Runtime) consumeSubscription(ctx context.Context, p pair, sub chain.Subscription, ch <-chan ethTypes.Log) {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				logger.Warn("Subscription for %s ended: %s", p.name, err)
			}
			return
		case lg := <-ch:
			r.dispatchLog(p, lg)
			r.markCheckpoint(p, lg.BlockNumber, database.CheckpointSynced, "")
		}
	}
}

// poll is the pull-based fallback: check for new confirmed blocks on an
// interval and scan forward from the checkpoint.
func (r *Runtime) poll(ctx context.Context, p pair) {
	interval := time.Duration(r.cfg.Indexer.NewBlockCheckMillis) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for {
		if r.stopping(ctx) {
			return
		}
		r.clock.Sleep(interval)
		if r.stopping(ctx) {
			return
		}

		checkpoint, err := database.FetchCheckpoint(r.db, p.chainID, p.address.Hex())
		if err != nil {
			logger.Error("Poll of %s: checkpoint fetch failed: %s", p.name, err)
			continue
		}

		from := resumeFrom(checkpoint, p.startBlock)

		head, err := r.headOnce(ctx, p)
		if err != nil {
			logger.Warn("Poll of %s: head fetch failed: %s", p.name, err)
			continue
		}

		if from > head {
			continue
		}
		r.scanRange(ctx, p, from, head, true)
		r.markCheckpoint(p, 0, database.CheckpointSynced, "")
	}
}

func (r *Runtime) headOnce(ctx context.Context, p pair) (uint64, error) {
	headCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	head, err := p.client.HeadNumber(headCtx)
	if err != nil {
		return 0, err
	}
	if head < r.cfg.Indexer.Confirmations {
		return 0, nil
	}
	return head - r.cfg.Indexer.Confirmations, nil
}
