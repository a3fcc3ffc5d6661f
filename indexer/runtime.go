package indexer

import (
	"context"
	"sync/atomic"

	"github.com/johnniedom/FundBrave-sub002/chain"
	"github.com/johnniedom/FundBrave-sub002/config"
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"
	"github.com/johnniedom/FundBrave-sub002/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// logSource is the slice of chain.Client the scanners depend on; tests
// substitute an in-process fake.
type logSource interface {
	HeadNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethTypes.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- ethTypes.Log) (chain.Subscription, error)
}

// pair is one (chain, contract) scan unit. Pairs scan independently; a slow
// or failing provider stalls only its own pair.
type pair struct {
	chainID    uint64
	client     logSource
	name       string
	kind       events.ContractKind
	address    common.Address
	startBlock uint64
}

// Runtime carries everything the scan loops, listeners and the sweep share.
// It replaces process-wide globals so cancellation and tests stay explicit.
type Runtime struct {
	cfg      *config.Config
	db       *gorm.DB
	registry *chain.Registry
	clock    clockwork.Clock
	stopped  atomic.Bool
}

func NewRuntime(cfg *config.Config, db *gorm.DB, registry *chain.Registry) *Runtime {
	return &Runtime{
		cfg:      cfg,
		db:       db,
		registry: registry,
		clock:    clockwork.NewRealClock(),
	}
}

// Stop requests shutdown. New scan cycles are not started; in-flight batches
// run to completion so checkpoints stay consistent with applied state.
func (r *Runtime) Stop() {
	r.stopped.Store(true)
}

func (r *Runtime) stopping(ctx context.Context) bool {
	return r.stopped.Load() || ctx.Err() != nil
}

// pairs resolves the configured contracts against the chains that survived
// the startup probe. Contracts on excluded chains are skipped with a log
// line.
func (r *Runtime) pairs() []pair {
	var out []pair
	for _, contract := range r.cfg.Contracts {
		kind, ok := events.KindFromString(contract.Kind)
		if !ok {
			logger.Warn("Contract %s has unknown kind %q, skipping", contract.Name, contract.Kind)
			continue
		}

		client, ok := r.registry.Client(contract.ChainID)
		if !ok {
			logger.Warn("Contract %s is on excluded chain %d, skipping", contract.Name, contract.ChainID)
			continue
		}

		out = append(out, pair{
			chainID:    contract.ChainID,
			client:     client,
			name:       contract.Name,
			kind:       kind,
			address:    common.HexToAddress(contract.Address),
			startBlock: contract.StartBlock,
		})
	}
	return out
}

// Run starts one backfill-then-listen loop per pair plus the periodic
// reconciliation sweep, and blocks until the context is cancelled. Per-pair
// failures are contained; Run only returns the context error.
func (r *Runtime) Run(ctx context.Context) error {
	pairs := r.pairs()
	if len(pairs) == 0 {
		logger.Warn("No (chain, contract) pairs to index")
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, p := range pairs {
		p := p
		g.Go(func() error {
			r.runPair(ctx, p)
			return nil
		})
	}

	g.Go(func() error {
		r.runSweep(ctx, pairs)
		return nil
	})

	err := g.Wait()
	logger.Info("Indexer runtime stopped")
	return err
}

func (r *Runtime) runPair(ctx context.Context, p pair) {
	if err := r.backfill(ctx, p); err != nil {
		logger.Error("Backfill of %s failed: %s", p.name, err)
		r.markCheckpoint(p, 0, database.CheckpointError, err.Error())
	} else {
		r.markCheckpoint(p, 0, database.CheckpointSynced, "")
	}

	if r.stopping(ctx) {
		return
	}

	r.listen(ctx, p)
}

// markCheckpoint records status only; lastBlock 0 leaves the stored
// watermark in place (the advance is clamped).
func (r *Runtime) markCheckpoint(p pair, lastBlock uint64, status, errMsg string) {
	err := database.AdvanceCheckpoint(r.db, p.chainID, p.address.Hex(), lastBlock, status, errMsg)
	if err != nil {
		logger.Error("Checkpoint update for %s failed: %s", p.name, err)
	}
}

// resumeFrom picks the next block to scan. A stored LastBlock of 0 means no
// window has committed yet (status-only updates create the row at 0), so
// scanning starts at the configured block; re-scanning block 0 is absorbed by
// dedup.
func resumeFrom(checkpoint *database.SyncCheckpoint, startBlock uint64) uint64 {
	if checkpoint != nil && checkpoint.LastBlock > 0 && checkpoint.LastBlock+1 > startBlock {
		return checkpoint.LastBlock + 1
	}
	return startBlock
}
