package ledger

import (
	"math/big"

	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// The three staking families (campaign pools, the shared impact pool and
// treasury FBT staking) emit the same events and follow the same ledger
// rules; they differ only in which contract address the rows hang off.

func applyStaked(tx *gorm.DB, meta TxMeta, ev *events.Staked) error {
	stake, err := fetchStake(tx, meta, addrStr(ev.Staker))
	if err != nil {
		return err
	}

	created := false
	if stake == nil {
		stake = &database.Stake{
			ChainID:         meta.ChainID,
			ContractAddress: meta.ContractAddress,
			Staker:          addrStr(ev.Staker),
			StakedAtBlock:   meta.BlockNumber,
		}
		created = true
	}

	wasActive := stake.IsActive
	stake.Principal = stake.Principal.Add(dec(ev.Amount))
	// The split recorded at stake time governs later harvests for this stake.
	stake.DaoShareBps = ev.DaoShareBps
	stake.StakerShareBps = ev.StakerShareBps
	stake.PlatformShareBps = ev.PlatformShareBps
	stake.IsActive = true
	stake.UnstakedAtBlock = 0
	if !created && !wasActive {
		stake.StakedAtBlock = meta.BlockNumber
	}

	if err := tx.Save(stake).Error; err != nil {
		return errors.Wrap(err, "applyStaked: save stake")
	}

	return updatePool(tx, meta, func(pool *database.PoolStats) {
		pool.TotalStaked = pool.TotalStaked.Add(dec(ev.Amount))
		if !wasActive {
			pool.ActiveStakers++
		}
	})
}

func applyUnstaked(tx *gorm.DB, meta TxMeta, ev *events.Unstaked) error {
	stake, err := fetchStake(tx, meta, addrStr(ev.Staker))
	if err != nil {
		return err
	}
	if stake == nil {
		return errors.Wrapf(ErrMissingReference, "unstake for unknown staker %s", addrStr(ev.Staker))
	}

	remaining := stake.Principal.Sub(dec(ev.Amount))
	if remaining.Sign() < 0 {
		return errors.Wrapf(ErrPrecondition,
			"unstake of %s exceeds principal %s", ev.Amount, stake.Principal)
	}

	wasActive := stake.IsActive
	stake.Principal = remaining
	if remaining.Sign() == 0 {
		stake.IsActive = false
		stake.UnstakedAtBlock = meta.BlockNumber
	}

	if err := tx.Save(stake).Error; err != nil {
		return errors.Wrap(err, "applyUnstaked: save stake")
	}

	return updatePool(tx, meta, func(pool *database.PoolStats) {
		pool.TotalStaked = pool.TotalStaked.Sub(dec(ev.Amount))
		if wasActive && !stake.IsActive && pool.ActiveStakers > 0 {
			pool.ActiveStakers--
		}
	})
}

// applyYieldHarvested fans one on-chain harvest out into one immutable
// YieldHarvestRecord per active stake. Each stake's credit is
// floor(stakerAmount * principal / totalActivePrincipal); the rounding
// shortfall stays with the pool.
func applyYieldHarvested(tx *gorm.DB, meta TxMeta, ev *events.YieldHarvested) error {
	var stakes []database.Stake
	err := tx.Where(&database.Stake{
		ChainID:         meta.ChainID,
		ContractAddress: meta.ContractAddress,
		IsActive:        true,
	}).Order("id").Find(&stakes).Error
	if err != nil {
		return errors.Wrap(err, "applyYieldHarvested: list stakes")
	}

	totalActive := new(big.Int)
	for i := range stakes {
		totalActive.Add(totalActive, stakes[i].Principal.BigInt())
	}
	if len(stakes) == 0 || totalActive.Sign() == 0 {
		return errors.Wrap(ErrMissingReference, "harvest for pool with no active principal")
	}

	for i := range stakes {
		stake := &stakes[i]
		share := ProRata(ev.StakerAmount, stake.Principal.BigInt(), totalActive)

		record := database.YieldHarvestRecord{
			ChainID:         meta.ChainID,
			TxHash:          meta.TxHash,
			LogIndex:        meta.LogIndex,
			StakeID:         stake.ID,
			ContractAddress: meta.ContractAddress,
			TotalYield:      dec(ev.TotalYield),
			DaoAmount:       dec(ev.DaoAmount),
			StakerAmount:    dec(ev.StakerAmount),
			PlatformAmount:  dec(ev.PlatformAmount),
			StakeShare:      dec(share),
			BlockNumber:     meta.BlockNumber,
		}
		if err := tx.Create(&record).Error; err != nil {
			return errors.Wrap(err, "applyYieldHarvested: create record")
		}

		stake.PendingYield = stake.PendingYield.Add(dec(share))
		if err := tx.Save(stake).Error; err != nil {
			return errors.Wrap(err, "applyYieldHarvested: save stake")
		}
	}

	return updatePool(tx, meta, func(pool *database.PoolStats) {
		pool.TotalYieldHarvested = pool.TotalYieldHarvested.Add(dec(ev.TotalYield))
	})
}

// applyYieldClaimed moves the stake's accumulated pending yield to claimed.
// Claims never touch principal.
func applyYieldClaimed(tx *gorm.DB, meta TxMeta, ev *events.YieldClaimed) error {
	stake, err := fetchStake(tx, meta, addrStr(ev.Staker))
	if err != nil {
		return err
	}
	if stake == nil {
		return errors.Wrapf(ErrMissingReference, "claim for unknown staker %s", addrStr(ev.Staker))
	}

	claimed := stake.PendingYield
	stake.ClaimedYield = stake.ClaimedYield.Add(claimed)
	stake.PendingYield = stake.PendingYield.Sub(claimed)

	if err := tx.Save(stake).Error; err != nil {
		return errors.Wrap(err, "applyYieldClaimed: save stake")
	}

	return updatePool(tx, meta, func(pool *database.PoolStats) {
		pool.TotalYieldClaimed = pool.TotalYieldClaimed.Add(claimed)
	})
}

func fetchStake(tx *gorm.DB, meta TxMeta, staker string) (*database.Stake, error) {
	var stake database.Stake
	err := tx.Where(&database.Stake{
		ChainID:         meta.ChainID,
		ContractAddress: meta.ContractAddress,
		Staker:          staker,
	}).First(&stake).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetchStake")
	}
	return &stake, nil
}

func updatePool(tx *gorm.DB, meta TxMeta, mutate func(*database.PoolStats)) error {
	var pool database.PoolStats
	err := tx.Where(&database.PoolStats{
		ChainID:         meta.ChainID,
		ContractAddress: meta.ContractAddress,
	}).First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pool = database.PoolStats{
			ChainID:         meta.ChainID,
			ContractAddress: meta.ContractAddress,
		}
	} else if err != nil {
		return errors.Wrap(err, "updatePool: fetch")
	}

	mutate(&pool)

	if err := tx.Save(&pool).Error; err != nil {
		return errors.Wrap(err, "updatePool: save")
	}
	return nil
}
