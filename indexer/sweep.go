package indexer

import (
	"context"
	"time"

	"github.com/johnniedom/FundBrave-sub002/logger"
)

// runSweep re-scans a trailing block window on every pair at a fixed
// interval, regardless of checkpoints. It heals gaps left by missed push
// notifications and skipped batches; idempotent dispatch makes the
// re-processing safe. The maximum staleness of any missed event is bounded
// by interval + window.
func (r *Runtime) runSweep(ctx context.Context, pairs []pair) {
	interval := time.Duration(r.cfg.Sweep.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}

		if r.stopping(ctx) {
			return
		}
		r.sweepOnce(ctx, pairs)
	}
}

func (r *Runtime) sweepOnce(ctx context.Context, pairs []pair) {
	for _, p := range pairs {
		if r.stopping(ctx) {
			return
		}

		head, err := r.headOnce(ctx, p)
		if err != nil {
			logger.Warn("Sweep of %s: head fetch failed: %s", p.name, err)
			continue
		}

		from := uint64(0)
		if head > r.cfg.Sweep.WindowBlocks {
			from = head - r.cfg.Sweep.WindowBlocks
		}

		logger.Debug("Sweeping %s blocks %d to %d", p.name, from, head)
		r.scanRange(ctx, p, from, head, true)
	}
}
