package ledger

import (
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/events"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Endowment yield is split between the cause and the donor's stock-building
// balance at a fixed ratio, with the same floor-and-retain rule as every
// other split.
const (
	endowmentCauseShareBps uint16 = 5000
	endowmentDonorShareBps uint16 = 5000
)

// applyDonationMade persists the split the contract already computed; the
// handler records it verbatim and never re-derives it.
func applyDonationMade(tx *gorm.DB, meta TxMeta, ev *events.DonationMade) error {
	endowment, err := fetchEndowment(tx, meta.ChainID, addrStr(ev.Donor), addrStr(ev.Fundraiser))
	if err != nil {
		return err
	}
	if endowment == nil {
		endowment = &database.EndowmentRecord{
			ChainID:    meta.ChainID,
			Donor:      addrStr(ev.Donor),
			Fundraiser: addrStr(ev.Fundraiser),
		}
	}

	endowment.Principal = endowment.Principal.Add(dec(ev.EndowmentAmount))
	if err := tx.Save(endowment).Error; err != nil {
		return errors.Wrap(err, "applyDonationMade: save endowment")
	}

	return updateFundraiser(tx, meta.ChainID, addrStr(ev.Fundraiser), func(stats *database.FundraiserStats) {
		stats.TotalDonated = stats.TotalDonated.Add(dec(ev.TotalAmount))
		stats.DirectTotal = stats.DirectTotal.Add(dec(ev.DirectAmount))
		stats.EndowmentTotal = stats.EndowmentTotal.Add(dec(ev.EndowmentAmount))
		stats.PlatformFeeTotal = stats.PlatformFeeTotal.Add(dec(ev.PlatformFeeAmount))
	})
}

func applyEndowmentYield(tx *gorm.DB, meta TxMeta, ev *events.EndowmentYieldHarvested) error {
	endowment, err := fetchEndowment(tx, meta.ChainID, addrStr(ev.Donor), addrStr(ev.Fundraiser))
	if err != nil {
		return err
	}
	if endowment == nil {
		return errors.Wrapf(ErrMissingReference, "yield for unknown endowment %s/%s",
			addrStr(ev.Donor), addrStr(ev.Fundraiser))
	}

	shares, _, err := SplitBps(ev.Amount, endowmentCauseShareBps, endowmentDonorShareBps)
	if err != nil {
		return err
	}
	causeShare := shares[0]

	endowment.LifetimeYield = endowment.LifetimeYield.Add(dec(ev.Amount))
	endowment.CauseYieldPaid = endowment.CauseYieldPaid.Add(dec(causeShare))
	if err := tx.Save(endowment).Error; err != nil {
		return errors.Wrap(err, "applyEndowmentYield: save endowment")
	}

	return updateFundraiser(tx, meta.ChainID, addrStr(ev.Fundraiser), func(stats *database.FundraiserStats) {
		stats.LifetimeYield = stats.LifetimeYield.Add(dec(ev.Amount))
	})
}

func applyStockPurchased(tx *gorm.DB, meta TxMeta, ev *events.StockPurchased) error {
	endowment, err := fetchEndowment(tx, meta.ChainID, addrStr(ev.Donor), addrStr(ev.Fundraiser))
	if err != nil {
		return err
	}
	if endowment == nil {
		return errors.Wrapf(ErrMissingReference, "stock purchase for unknown endowment %s/%s",
			addrStr(ev.Donor), addrStr(ev.Fundraiser))
	}

	var holding database.StockHolding
	err = tx.Where(&database.StockHolding{
		ChainID: meta.ChainID,
		Donor:   addrStr(ev.Donor),
		Token:   addrStr(ev.Token),
	}).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		holding = database.StockHolding{
			ChainID: meta.ChainID,
			Donor:   addrStr(ev.Donor),
			Token:   addrStr(ev.Token),
		}
	} else if err != nil {
		return errors.Wrap(err, "applyStockPurchased: fetch holding")
	}

	holding.Shares = holding.Shares.Add(dec(ev.Shares))
	holding.CostBasis = holding.CostBasis.Add(dec(ev.Cost))
	if err := tx.Save(&holding).Error; err != nil {
		return errors.Wrap(err, "applyStockPurchased: save holding")
	}

	endowment.DonorStockValue = endowment.DonorStockValue.Add(dec(ev.Cost))
	if err := tx.Save(endowment).Error; err != nil {
		return errors.Wrap(err, "applyStockPurchased: save endowment")
	}
	return nil
}

func fetchEndowment(tx *gorm.DB, chainID uint64, donor, fundraiser string) (*database.EndowmentRecord, error) {
	var endowment database.EndowmentRecord
	err := tx.Where(&database.EndowmentRecord{
		ChainID:    chainID,
		Donor:      donor,
		Fundraiser: fundraiser,
	}).First(&endowment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetchEndowment")
	}
	return &endowment, nil
}

func updateFundraiser(tx *gorm.DB, chainID uint64, fundraiser string, mutate func(*database.FundraiserStats)) error {
	var stats database.FundraiserStats
	err := tx.Where(&database.FundraiserStats{
		ChainID:    chainID,
		Fundraiser: fundraiser,
	}).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = database.FundraiserStats{ChainID: chainID, Fundraiser: fundraiser}
	} else if err != nil {
		return errors.Wrap(err, "updateFundraiser: fetch")
	}

	mutate(&stats)

	if err := tx.Save(&stats).Error; err != nil {
		return errors.Wrap(err, "updateFundraiser: save")
	}
	return nil
}
