package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseEntity is an abstract entity, all other entities should be derived from it
type BaseEntity struct {
	ID uint64 `gorm:"primaryKey"`
}

// Checkpoint sync status values.
const (
	CheckpointSyncing string = "syncing"
	CheckpointSynced  string = "synced"
	CheckpointError   string = "error"
	CheckpointPaused  string = "paused"
)

// SyncCheckpoint records the last block processed for one (chain, contract)
// pair. LastBlock is monotonically non-decreasing per pair.
type SyncCheckpoint struct {
	BaseEntity
	ChainID         uint64 `gorm:"uniqueIndex:idx_checkpoint_key"`
	ContractAddress string `gorm:"type:varchar(42);uniqueIndex:idx_checkpoint_key"`
	LastBlock       uint64
	Status          string `gorm:"type:varchar(10)"`
	Error           string `gorm:"type:varchar(1000)"`
	LastSyncAt      time.Time
}

// EventJournal holds one row per applied log. The unique index over
// (chain_id, tx_hash, log_index) is the system's core dedup key: an insert
// conflict means the event was already applied and the mutation is skipped.
type EventJournal struct {
	BaseEntity
	ChainID     uint64 `gorm:"uniqueIndex:idx_event_key"`
	TxHash      string `gorm:"type:varchar(66);uniqueIndex:idx_event_key"`
	LogIndex    uint   `gorm:"uniqueIndex:idx_event_key"`
	Contract    string `gorm:"type:varchar(42)"`
	EventName   string `gorm:"type:varchar(50)"`
	BlockNumber uint64
	AppliedAt   time.Time
}

// Stake is one staker's position in one staking contract (campaign pool,
// impact pool or treasury FBT staking). Deactivated, never deleted, when the
// principal reaches exactly zero.
type Stake struct {
	BaseEntity
	ChainID          uint64 `gorm:"uniqueIndex:idx_stake_key"`
	ContractAddress  string `gorm:"type:varchar(42);uniqueIndex:idx_stake_key"`
	Staker           string `gorm:"type:varchar(42);uniqueIndex:idx_stake_key"`
	Principal        decimal.Decimal `gorm:"type:decimal(65,0)"`
	DaoShareBps      uint16
	StakerShareBps   uint16
	PlatformShareBps uint16
	PendingYield     decimal.Decimal `gorm:"type:decimal(65,0)"`
	ClaimedYield     decimal.Decimal `gorm:"type:decimal(65,0)"`
	IsActive         bool
	StakedAtBlock    uint64
	UnstakedAtBlock  uint64
}

// YieldHarvestRecord is the immutable audit row created per active stake per
// harvest event. One on-chain harvest fans out into one row per recipient;
// the unique index keeps re-dispatch from ever colliding or duplicating.
type YieldHarvestRecord struct {
	BaseEntity
	ChainID         uint64 `gorm:"uniqueIndex:idx_harvest_key"`
	TxHash          string `gorm:"type:varchar(66);uniqueIndex:idx_harvest_key"`
	LogIndex        uint   `gorm:"uniqueIndex:idx_harvest_key"`
	StakeID         uint64 `gorm:"uniqueIndex:idx_harvest_key"`
	ContractAddress string `gorm:"type:varchar(42)"`
	TotalYield      decimal.Decimal `gorm:"type:decimal(65,0)"`
	DaoAmount       decimal.Decimal `gorm:"type:decimal(65,0)"`
	StakerAmount    decimal.Decimal `gorm:"type:decimal(65,0)"`
	PlatformAmount  decimal.Decimal `gorm:"type:decimal(65,0)"`
	StakeShare      decimal.Decimal `gorm:"type:decimal(65,0)"`
	BlockNumber     uint64
}

// PoolStats aggregates one staking contract. Always re-derivable by summing
// the stake and harvest rows; maintained in the same transaction as them.
type PoolStats struct {
	BaseEntity
	ChainID             uint64 `gorm:"uniqueIndex:idx_pool_key"`
	ContractAddress     string `gorm:"type:varchar(42);uniqueIndex:idx_pool_key"`
	TotalStaked         decimal.Decimal `gorm:"type:decimal(65,0)"`
	TotalYieldHarvested decimal.Decimal `gorm:"type:decimal(65,0)"`
	TotalYieldClaimed   decimal.Decimal `gorm:"type:decimal(65,0)"`
	ActiveStakers       uint64
}

// EndowmentRecord tracks the yield-generating principal of one donor's
// donations to one fundraiser.
type EndowmentRecord struct {
	BaseEntity
	ChainID         uint64 `gorm:"uniqueIndex:idx_endowment_key"`
	Donor           string `gorm:"type:varchar(42);uniqueIndex:idx_endowment_key"`
	Fundraiser      string `gorm:"type:varchar(42);uniqueIndex:idx_endowment_key"`
	Principal       decimal.Decimal `gorm:"type:decimal(65,0)"`
	LifetimeYield   decimal.Decimal `gorm:"type:decimal(65,0)"`
	CauseYieldPaid  decimal.Decimal `gorm:"type:decimal(65,0)"`
	DonorStockValue decimal.Decimal `gorm:"type:decimal(65,0)"`
}

// StockHolding is a donor's per-token portfolio position bought with
// endowment yield.
type StockHolding struct {
	BaseEntity
	ChainID   uint64 `gorm:"uniqueIndex:idx_stock_key"`
	Donor     string `gorm:"type:varchar(42);uniqueIndex:idx_stock_key"`
	Token     string `gorm:"type:varchar(42);uniqueIndex:idx_stock_key"`
	Shares    decimal.Decimal `gorm:"type:decimal(65,0)"`
	CostBasis decimal.Decimal `gorm:"type:decimal(65,0)"`
}

// FundraiserStats aggregates all donations to one fundraiser.
type FundraiserStats struct {
	BaseEntity
	ChainID          uint64 `gorm:"uniqueIndex:idx_fundraiser_key"`
	Fundraiser       string `gorm:"type:varchar(42);uniqueIndex:idx_fundraiser_key"`
	TotalDonated     decimal.Decimal `gorm:"type:decimal(65,0)"`
	DirectTotal      decimal.Decimal `gorm:"type:decimal(65,0)"`
	EndowmentTotal   decimal.Decimal `gorm:"type:decimal(65,0)"`
	PlatformFeeTotal decimal.Decimal `gorm:"type:decimal(65,0)"`
	LifetimeYield    decimal.Decimal `gorm:"type:decimal(65,0)"`
}

// VestingSchedule is one recipient's time-locked token allocation.
// ReleasedAmount only increases; the currently claimable amount is always
// derived from wall-clock time and never persisted.
type VestingSchedule struct {
	BaseEntity
	ChainID         uint64 `gorm:"uniqueIndex:idx_vesting_key"`
	ContractAddress string `gorm:"type:varchar(42);uniqueIndex:idx_vesting_key"`
	Recipient       string `gorm:"type:varchar(42);uniqueIndex:idx_vesting_key"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(65,0)"`
	ReleasedAmount  decimal.Decimal `gorm:"type:decimal(65,0)"`
	StartTime       uint64
	Duration        uint64
	IsFullyVested   bool
	IsFullyClaimed  bool
}
