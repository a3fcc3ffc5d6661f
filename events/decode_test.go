package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStaker   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func packLog(t *testing.T, contractABI string, event string, topics []common.Hash, args ...interface{}) types.Log {
	t.Helper()

	a := mustParseABI(contractABI)
	data, err := a.Events[event].Inputs.NonIndexed().Pack(args...)
	require.NoError(t, err)

	return types.Log{
		Address:     testContract,
		Topics:      append([]common.Hash{a.Events[event].ID}, topics...),
		Data:        data,
		BlockNumber: 1234,
		TxHash:      common.HexToHash("0x01"),
		Index:       3,
	}
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func TestDecodeStaked(t *testing.T) {
	log := packLog(t, stakingABIJSON, "Staked",
		[]common.Hash{addressTopic(testStaker)},
		big.NewInt(100000), uint16(7900), uint16(1900), uint16(200),
	)

	decoded, err := Decode(KindCampaignStaking, log)
	require.NoError(t, err)

	staked, ok := decoded.(*Staked)
	require.True(t, ok)
	assert.Equal(t, testStaker, staked.Staker)
	assert.Equal(t, int64(100000), staked.Amount.Int64())
	assert.Equal(t, uint16(7900), staked.DaoShareBps)
	assert.Equal(t, uint16(1900), staked.StakerShareBps)
	assert.Equal(t, uint16(200), staked.PlatformShareBps)
}

func TestDecodeYieldHarvested(t *testing.T) {
	log := packLog(t, stakingABIJSON, "YieldHarvested", nil,
		big.NewInt(10000), big.NewInt(7900), big.NewInt(1900), big.NewInt(200),
	)

	decoded, err := Decode(KindImpactPool, log)
	require.NoError(t, err)

	harvest, ok := decoded.(*YieldHarvested)
	require.True(t, ok)
	assert.Equal(t, int64(10000), harvest.TotalYield.Int64())
	assert.Equal(t, int64(1900), harvest.StakerAmount.Int64())
}

func TestDecodeDonationMade(t *testing.T) {
	donor := common.HexToAddress("0x11")
	fundraiser := common.HexToAddress("0x22")

	log := packLog(t, wealthABIJSON, "DonationMade",
		[]common.Hash{addressTopic(donor), addressTopic(fundraiser)},
		big.NewInt(10000), big.NewInt(7000), big.NewInt(2800), big.NewInt(200),
	)

	decoded, err := Decode(KindWealthBuilding, log)
	require.NoError(t, err)

	made, ok := decoded.(*DonationMade)
	require.True(t, ok)
	assert.Equal(t, donor, made.Donor)
	assert.Equal(t, fundraiser, made.Fundraiser)
	assert.Equal(t, int64(2800), made.EndowmentAmount.Int64())
}

// The wealth-building YieldHarvested has a different shape than the staking
// one; the contract kind selects the schema.
func TestDecodeEndowmentYield(t *testing.T) {
	donor := common.HexToAddress("0x11")
	fundraiser := common.HexToAddress("0x22")

	log := packLog(t, wealthABIJSON, "YieldHarvested",
		[]common.Hash{addressTopic(donor), addressTopic(fundraiser)},
		big.NewInt(501),
	)

	decoded, err := Decode(KindWealthBuilding, log)
	require.NoError(t, err)

	yield, ok := decoded.(*EndowmentYieldHarvested)
	require.True(t, ok)
	assert.Equal(t, int64(501), yield.Amount.Int64())
}

func TestDecodeVestingScheduleCreated(t *testing.T) {
	log := packLog(t, vestingABIJSON, "VestingScheduleCreated",
		[]common.Hash{addressTopic(testStaker)},
		big.NewInt(1000), uint64(100), uint64(400),
	)

	decoded, err := Decode(KindTokenVesting, log)
	require.NoError(t, err)

	created, ok := decoded.(*VestingScheduleCreated)
	require.True(t, ok)
	assert.Equal(t, int64(1000), created.TotalAmount.Int64())
	assert.Equal(t, uint64(100), created.StartTime)
	assert.Equal(t, uint64(400), created.Duration)
}

// A topic outside the kind's schema decodes to Unknown rather than an error;
// contract upgrades that add events must not break the scan.
func TestDecodeUnknownTopic(t *testing.T) {
	log := types.Log{
		Address: testContract,
		Topics:  []common.Hash{common.HexToHash("0xdeadbeef")},
	}

	decoded, err := Decode(KindCampaignStaking, log)
	require.NoError(t, err)

	unknown, ok := decoded.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, common.HexToHash("0xdeadbeef"), unknown.Topic)
}

// A staking event topic is not part of the vesting schema.
func TestDecodeTopicFromOtherSchema(t *testing.T) {
	log := packLog(t, stakingABIJSON, "Staked",
		[]common.Hash{addressTopic(testStaker)},
		big.NewInt(1), uint16(7900), uint16(1900), uint16(200),
	)

	decoded, err := Decode(KindTokenVesting, log)
	require.NoError(t, err)
	_, ok := decoded.(*Unknown)
	assert.True(t, ok)
}

func TestDecodeMalformedData(t *testing.T) {
	log := packLog(t, stakingABIJSON, "Staked",
		[]common.Hash{addressTopic(testStaker)},
		big.NewInt(1), uint16(7900), uint16(1900), uint16(200),
	)
	log.Data = log.Data[:8] // truncate

	_, err := Decode(KindCampaignStaking, log)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecodeNoTopics(t *testing.T) {
	_, err := Decode(KindCampaignStaking, types.Log{})
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestTopicsPerKind(t *testing.T) {
	assert.Len(t, Topics(KindCampaignStaking), 4)
	assert.Len(t, Topics(KindWealthBuilding), 3)
	assert.Len(t, Topics(KindTokenVesting), 2)
}
