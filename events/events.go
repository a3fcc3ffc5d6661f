package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ContractKind selects the event schema and the ledger handlers for one
// configured contract. The three staking kinds share one schema but write to
// separate pools.
type ContractKind string

const (
	KindCampaignStaking ContractKind = "campaign_staking"
	KindImpactPool      ContractKind = "impact_pool"
	KindTreasuryStaking ContractKind = "treasury_staking"
	KindWealthBuilding  ContractKind = "wealth_building"
	KindTokenVesting    ContractKind = "token_vesting"
)

var allKinds = []ContractKind{
	KindCampaignStaking,
	KindImpactPool,
	KindTreasuryStaking,
	KindWealthBuilding,
	KindTokenVesting,
}

func KindFromString(s string) (ContractKind, bool) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Event is the closed union of decoded contract events. Every decoded log is
// exactly one of the concrete types below; logs whose topic does not match
// any known schema decode to Unknown.
type Event interface {
	EventName() string
}

type Staked struct {
	Staker           common.Address
	Amount           *big.Int
	DaoShareBps      uint16
	StakerShareBps   uint16
	PlatformShareBps uint16
}

type Unstaked struct {
	Staker common.Address
	Amount *big.Int
}

type YieldHarvested struct {
	TotalYield     *big.Int
	DaoAmount      *big.Int
	StakerAmount   *big.Int
	PlatformAmount *big.Int
}

type YieldClaimed struct {
	Staker common.Address
	Amount *big.Int
}

type DonationMade struct {
	Donor             common.Address
	Fundraiser        common.Address
	TotalAmount       *big.Int
	DirectAmount      *big.Int
	EndowmentAmount   *big.Int
	PlatformFeeAmount *big.Int
}

type EndowmentYieldHarvested struct {
	Donor      common.Address
	Fundraiser common.Address
	Amount     *big.Int
}

type StockPurchased struct {
	Donor      common.Address
	Token      common.Address
	Fundraiser common.Address
	Shares     *big.Int
	Cost       *big.Int
}

type VestingScheduleCreated struct {
	Recipient   common.Address
	TotalAmount *big.Int
	StartTime   uint64
	Duration    uint64
}

type VestedTokensClaimed struct {
	Recipient common.Address
	Amount    *big.Int
}

// Unknown is the fallback for logs emitted by a watched contract whose topic
// is not part of the known schema, e.g. after a contract upgrade adds events.
type Unknown struct {
	Topic common.Hash
}

func (e *Staked) EventName() string                  { return "Staked" }
func (e *Unstaked) EventName() string                { return "Unstaked" }
func (e *YieldHarvested) EventName() string          { return "YieldHarvested" }
func (e *YieldClaimed) EventName() string            { return "YieldClaimed" }
func (e *DonationMade) EventName() string            { return "DonationMade" }
func (e *EndowmentYieldHarvested) EventName() string { return "YieldHarvested" }
func (e *StockPurchased) EventName() string          { return "StockPurchased" }
func (e *VestingScheduleCreated) EventName() string  { return "VestingScheduleCreated" }
func (e *VestedTokensClaimed) EventName() string     { return "VestedTokensClaimed" }
func (e *Unknown) EventName() string                 { return "Unknown" }
