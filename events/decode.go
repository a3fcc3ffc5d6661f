package events

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

//go:embed contracts/Staking.json
var stakingABIJSON string

//go:embed contracts/WealthBuilding.json
var wealthABIJSON string

//go:embed contracts/TokenVesting.json
var vestingABIJSON string

var (
	stakingABI abi.ABI
	wealthABI  abi.ABI
	vestingABI abi.ABI
)

// ErrDecodeFailed marks a log that matched a known event topic but whose
// payload could not be unpacked. The failure is local to one log.
var ErrDecodeFailed = errors.New("event decode failed")

func init() {
	stakingABI = mustParseABI(stakingABIJSON)
	wealthABI = mustParseABI(wealthABIJSON)
	vestingABI = mustParseABI(vestingABIJSON)
}

func mustParseABI(doc string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(doc))
	if err != nil {
		panic(errors.Wrap(err, "embedded contract ABI is invalid"))
	}
	return parsed
}

func abiFor(kind ContractKind) abi.ABI {
	switch kind {
	case KindWealthBuilding:
		return wealthABI
	case KindTokenVesting:
		return vestingABI
	default:
		return stakingABI
	}
}

// Topics returns the event topic hashes for one contract kind, for
// subscription filters.
func Topics(kind ContractKind) []common.Hash {
	a := abiFor(kind)
	topics := make([]common.Hash, 0, len(a.Events))
	for _, ev := range a.Events {
		topics = append(topics, ev.ID)
	}
	return topics
}

// Decode resolves a raw log against the contract kind's schema. Logs with an
// unrecognized topic decode to *Unknown; malformed payloads return
// ErrDecodeFailed.
func Decode(kind ContractKind, log types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, errors.Wrap(ErrDecodeFailed, "log has no topics")
	}

	a := abiFor(kind)
	ev, err := a.EventByID(log.Topics[0])
	if err != nil {
		return &Unknown{Topic: log.Topics[0]}, nil
	}

	decoded := newEvent(kind, ev.Name)
	if decoded == nil {
		return &Unknown{Topic: log.Topics[0]}, nil
	}

	if err := a.UnpackIntoInterface(decoded, ev.Name, log.Data); err != nil {
		return nil, errors.Wrapf(ErrDecodeFailed, "unpack %s: %s", ev.Name, err)
	}
	if err := setIndexed(decoded, log); err != nil {
		return nil, err
	}

	return decoded, nil
}

func newEvent(kind ContractKind, name string) Event {
	switch kind {
	case KindWealthBuilding:
		switch name {
		case "DonationMade":
			return &DonationMade{}
		case "YieldHarvested":
			return &EndowmentYieldHarvested{}
		case "StockPurchased":
			return &StockPurchased{}
		}
	case KindTokenVesting:
		switch name {
		case "VestingScheduleCreated":
			return &VestingScheduleCreated{}
		case "VestedTokensClaimed":
			return &VestedTokensClaimed{}
		}
	default:
		switch name {
		case "Staked":
			return &Staked{}
		case "Unstaked":
			return &Unstaked{}
		case "YieldHarvested":
			return &YieldHarvested{}
		case "YieldClaimed":
			return &YieldClaimed{}
		}
	}
	return nil
}

// setIndexed fills the indexed (topic) arguments, which UnpackIntoInterface
// does not cover.
func setIndexed(decoded Event, log types.Log) error {
	addr := func(i int) (common.Address, error) {
		if len(log.Topics) <= i {
			return common.Address{}, errors.Wrapf(ErrDecodeFailed, "missing indexed topic %d", i)
		}
		return common.BytesToAddress(log.Topics[i].Bytes()), nil
	}

	var err error
	switch e := decoded.(type) {
	case *Staked:
		e.Staker, err = addr(1)
	case *Unstaked:
		e.Staker, err = addr(1)
	case *YieldClaimed:
		e.Staker, err = addr(1)
	case *DonationMade:
		if e.Donor, err = addr(1); err != nil {
			return err
		}
		e.Fundraiser, err = addr(2)
	case *EndowmentYieldHarvested:
		if e.Donor, err = addr(1); err != nil {
			return err
		}
		e.Fundraiser, err = addr(2)
	case *StockPurchased:
		if e.Donor, err = addr(1); err != nil {
			return err
		}
		e.Token, err = addr(2)
	case *VestingScheduleCreated:
		e.Recipient, err = addr(1)
	case *VestedTokensClaimed:
		e.Recipient, err = addr(1)
	}

	return err
}
