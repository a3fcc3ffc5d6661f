package ledger

import (
	"math/big"
	"time"

	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func applyVestingScheduleCreated(tx *gorm.DB, meta TxMeta, ev *events.VestingScheduleCreated) error {
	existing, err := fetchSchedule(tx, meta, addrStr(ev.Recipient))
	if err != nil {
		return err
	}
	if existing != nil {
		// Created once per recipient; a second creation event for the same
		// recipient carries nothing new.
		return nil
	}

	schedule := database.VestingSchedule{
		ChainID:         meta.ChainID,
		ContractAddress: meta.ContractAddress,
		Recipient:       addrStr(ev.Recipient),
		TotalAmount:     dec(ev.TotalAmount),
		StartTime:       ev.StartTime,
		Duration:        ev.Duration,
	}
	return errors.Wrap(tx.Create(&schedule).Error, "applyVestingScheduleCreated")
}

func applyVestedTokensClaimed(tx *gorm.DB, meta TxMeta, ev *events.VestedTokensClaimed) error {
	schedule, err := fetchSchedule(tx, meta, addrStr(ev.Recipient))
	if err != nil {
		return err
	}
	if schedule == nil {
		return errors.Wrapf(ErrMissingReference, "claim for unknown schedule %s", addrStr(ev.Recipient))
	}

	released := schedule.ReleasedAmount.Add(dec(ev.Amount))
	if released.Cmp(schedule.TotalAmount) > 0 {
		return errors.Wrapf(ErrPrecondition,
			"claim of %s would release %s of %s total", ev.Amount, released, schedule.TotalAmount)
	}

	schedule.ReleasedAmount = released
	schedule.IsFullyClaimed = released.Equal(schedule.TotalAmount)
	if schedule.IsFullyClaimed || elapsed(schedule, time.Now()) >= schedule.Duration {
		schedule.IsFullyVested = true
	}

	return errors.Wrap(tx.Save(schedule).Error, "applyVestedTokensClaimed")
}

// ClaimableAt derives the amount claimable at the given time: the linearly
// vested portion of the total, minus what was already released. It is always
// computed, never persisted; the recorded claims are the ground truth.
func ClaimableAt(schedule *database.VestingSchedule, at time.Time) decimal.Decimal {
	e := elapsed(schedule, at)
	if schedule.Duration == 0 || e >= schedule.Duration {
		return schedule.TotalAmount.Sub(schedule.ReleasedAmount)
	}

	vested := new(big.Int).Mul(schedule.TotalAmount.BigInt(), new(big.Int).SetUint64(e))
	vested.Quo(vested, new(big.Int).SetUint64(schedule.Duration))

	claimable := dec(vested).Sub(schedule.ReleasedAmount)
	if claimable.Sign() < 0 {
		return decimal.Zero
	}
	return claimable
}

func elapsed(schedule *database.VestingSchedule, at time.Time) uint64 {
	now := uint64(at.Unix())
	if now <= schedule.StartTime {
		return 0
	}
	return now - schedule.StartTime
}

func fetchSchedule(tx *gorm.DB, meta TxMeta, recipient string) (*database.VestingSchedule, error) {
	var schedule database.VestingSchedule
	err := tx.Where(&database.VestingSchedule{
		ChainID:         meta.ChainID,
		ContractAddress: meta.ContractAddress,
		Recipient:       recipient,
	}).First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetchSchedule")
	}
	return &schedule, nil
}
