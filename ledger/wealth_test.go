package ledger

import (
	"math/big"
	"testing"

	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	donor      = common.HexToAddress("0x0000000000000000000000000000000000000011")
	fundraiser = common.HexToAddress("0x0000000000000000000000000000000000000022")
	stockToken = common.HexToAddress("0x0000000000000000000000000000000000000033")
)

func donation(total, direct, endowment, fee int64) *events.DonationMade {
	return &events.DonationMade{
		Donor:             donor,
		Fundraiser:        fundraiser,
		TotalAmount:       big.NewInt(total),
		DirectAmount:      big.NewInt(direct),
		EndowmentAmount:   big.NewInt(endowment),
		PlatformFeeAmount: big.NewInt(fee),
	}
}

func fetchTestEndowment(t *testing.T, db *gorm.DB) database.EndowmentRecord {
	t.Helper()
	var record database.EndowmentRecord
	err := db.Where(&database.EndowmentRecord{
		ChainID:    1,
		Donor:      addrStr(donor),
		Fundraiser: addrStr(fundraiser),
	}).First(&record).Error
	require.NoError(t, err)
	return record
}

func TestDonationMadeRecordsSplitVerbatim(t *testing.T) {
	db, err := database.ConnectTestDB()
	require.NoError(t, err)

	require.NoError(t, Apply(db, events.KindWealthBuilding, donation(10000, 7000, 2800, 200), testMeta(1)))
	require.NoError(t, Apply(db, events.KindWealthBuilding, donation(5000, 3500, 1400, 100), testMeta(2)))

	endowment := fetchTestEndowment(t, db)
	assert.Equal(t, "4200", endowment.Principal.String())

	var stats database.FundraiserStats
	require.NoError(t, db.Where(&database.FundraiserStats{ChainID: 1, Fundraiser: addrStr(fundraiser)}).First(&stats).Error)
	assert.Equal(t, "15000", stats.TotalDonated.String())
	assert.Equal(t, "10500", stats.DirectTotal.String())
	assert.Equal(t, "4200", stats.EndowmentTotal.String())
	assert.Equal(t, "300", stats.PlatformFeeTotal.String())
}

func TestDonationIdempotent(t *testing.T) {
	db, err := database.ConnectTestDB()
	require.NoError(t, err)

	meta := testMeta(1)
	require.NoError(t, Apply(db, events.KindWealthBuilding, donation(10000, 7000, 2800, 200), meta))
	assert.ErrorIs(t, Apply(db, events.KindWealthBuilding, donation(10000, 7000, 2800, 200), meta), ErrDuplicateEvent)

	assert.Equal(t, "2800", fetchTestEndowment(t, db).Principal.String())
}

func TestEndowmentYieldSplit(t *testing.T) {
	db, err := database.ConnectTestDB()
	require.NoError(t, err)

	require.NoError(t, Apply(db, events.KindWealthBuilding, donation(10000, 7000, 2800, 200), testMeta(1)))

	yield := &events.EndowmentYieldHarvested{Donor: donor, Fundraiser: fundraiser, Amount: big.NewInt(501)}
	require.NoError(t, Apply(db, events.KindWealthBuilding, yield, testMeta(2)))

	endowment := fetchTestEndowment(t, db)
	assert.Equal(t, "501", endowment.LifetimeYield.String())
	// floor(501 * 5000 / 10000) = 250; the odd unit is retained.
	assert.Equal(t, "250", endowment.CauseYieldPaid.String())

	var stats database.FundraiserStats
	require.NoError(t, db.Where(&database.FundraiserStats{ChainID: 1, Fundraiser: addrStr(fundraiser)}).First(&stats).Error)
	assert.Equal(t, "501", stats.LifetimeYield.String())
}

func TestEndowmentYieldUnknownEndowmentSkipped(t *testing.T) {
	db, err := database.ConnectTestDB()
	require.NoError(t, err)

	yield := &events.EndowmentYieldHarvested{Donor: donor, Fundraiser: fundraiser, Amount: big.NewInt(100)}
	assert.ErrorIs(t, Apply(db, events.KindWealthBuilding, yield, testMeta(1)), ErrMissingReference)
}

func TestStockPurchased(t *testing.T) {
	db, err := database.ConnectTestDB()
	require.NoError(t, err)

	require.NoError(t, Apply(db, events.KindWealthBuilding, donation(10000, 7000, 2800, 200), testMeta(1)))

	buy := &events.StockPurchased{
		Donor:      donor,
		Token:      stockToken,
		Fundraiser: fundraiser,
		Shares:     big.NewInt(12),
		Cost:       big.NewInt(240),
	}
	require.NoError(t, Apply(db, events.KindWealthBuilding, buy, testMeta(2)))

	buy2 := &events.StockPurchased{
		Donor:      donor,
		Token:      stockToken,
		Fundraiser: fundraiser,
		Shares:     big.NewInt(3),
		Cost:       big.NewInt(90),
	}
	require.NoError(t, Apply(db, events.KindWealthBuilding, buy2, testMeta(3)))

	var holding database.StockHolding
	require.NoError(t, db.Where(&database.StockHolding{
		ChainID: 1,
		Donor:   addrStr(donor),
		Token:   addrStr(stockToken),
	}).First(&holding).Error)
	assert.Equal(t, "15", holding.Shares.String())
	assert.Equal(t, "330", holding.CostBasis.String())

	assert.Equal(t, "330", fetchTestEndowment(t, db).DonorStockValue.String())
}
