package ledger

import (
	"strings"
	"time"

	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxMeta is the natural identity of one log: the dedup key plus its position
// on chain. ContractAddress is stored lowercased.
type TxMeta struct {
	ChainID         uint64
	ContractAddress string
	TxHash          string
	LogIndex        uint
	BlockNumber     uint64
}

type applyFunc func(tx *gorm.DB, meta TxMeta) error

// Apply routes one decoded event to its domain handler and applies it inside
// a single transaction. The transaction first claims the event's journal row;
// a conflict rolls everything back and surfaces ErrDuplicateEvent, which
// makes every handler idempotent on (txHash, logIndex, chainId) without
// handler-specific dedup logic.
func Apply(db *gorm.DB, kind events.ContractKind, ev events.Event, meta TxMeta) error {
	meta.ContractAddress = strings.ToLower(meta.ContractAddress)
	meta.TxHash = strings.ToLower(meta.TxHash)

	handler, ok := route(kind, ev)
	if !ok {
		return ErrNoHandler
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := claimJournalRow(tx, meta, ev.EventName()); err != nil {
			return err
		}
		return handler(tx, meta)
	})
}

// route maps a (contract kind, event) combination to its handler.
func route(kind events.ContractKind, ev events.Event) (applyFunc, bool) {
	switch kind {
	case events.KindCampaignStaking, events.KindImpactPool, events.KindTreasuryStaking:
		switch e := ev.(type) {
		case *events.Staked:
			return func(tx *gorm.DB, meta TxMeta) error { return applyStaked(tx, meta, e) }, true
		case *events.Unstaked:
			return func(tx *gorm.DB, meta TxMeta) error { return applyUnstaked(tx, meta, e) }, true
		case *events.YieldHarvested:
			return func(tx *gorm.DB, meta TxMeta) error { return applyYieldHarvested(tx, meta, e) }, true
		case *events.YieldClaimed:
			return func(tx *gorm.DB, meta TxMeta) error { return applyYieldClaimed(tx, meta, e) }, true
		}
	case events.KindWealthBuilding:
		switch e := ev.(type) {
		case *events.DonationMade:
			return func(tx *gorm.DB, meta TxMeta) error { return applyDonationMade(tx, meta, e) }, true
		case *events.EndowmentYieldHarvested:
			return func(tx *gorm.DB, meta TxMeta) error { return applyEndowmentYield(tx, meta, e) }, true
		case *events.StockPurchased:
			return func(tx *gorm.DB, meta TxMeta) error { return applyStockPurchased(tx, meta, e) }, true
		}
	case events.KindTokenVesting:
		switch e := ev.(type) {
		case *events.VestingScheduleCreated:
			return func(tx *gorm.DB, meta TxMeta) error { return applyVestingScheduleCreated(tx, meta, e) }, true
		case *events.VestedTokensClaimed:
			return func(tx *gorm.DB, meta TxMeta) error { return applyVestedTokensClaimed(tx, meta, e) }, true
		}
	}
	return nil, false
}

func claimJournalRow(tx *gorm.DB, meta TxMeta, eventName string) error {
	row := database.EventJournal{
		ChainID:     meta.ChainID,
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Contract:    meta.ContractAddress,
		EventName:   eventName,
		BlockNumber: meta.BlockNumber,
		AppliedAt:   time.Now(),
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateEvent
	}
	return nil
}

func addrStr(a common.Address) string {
	return strings.ToLower(a.Hex())
}
