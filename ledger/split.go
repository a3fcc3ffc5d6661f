package ledger

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TotalBps is the whole a basis-point split must sum to.
const TotalBps = 10000

var totalBpsBig = big.NewInt(TotalBps)

// SplitBps splits amount into one share per basis-point weight. Each share is
// floor(amount * bps / 10000); the rounding remainder (always < len(bps)
// units) is returned separately and retained by the pool, never paid out.
// The weights must sum to exactly 10000.
func SplitBps(amount *big.Int, bps ...uint16) ([]*big.Int, *big.Int, error) {
	var sum int64
	for _, b := range bps {
		sum += int64(b)
	}
	if sum != TotalBps {
		return nil, nil, errors.Wrapf(ErrPrecondition, "split weights sum to %d, not %d", sum, TotalBps)
	}

	shares := make([]*big.Int, len(bps))
	paid := new(big.Int)
	for i, b := range bps {
		share := new(big.Int).Mul(amount, big.NewInt(int64(b)))
		share.Quo(share, totalBpsBig)
		shares[i] = share
		paid.Add(paid, share)
	}

	remainder := new(big.Int).Sub(amount, paid)
	return shares, remainder, nil
}

// ProRata returns floor(total * part / whole). Used to credit each staker
// their proportional slice of a harvested staker-pool yield.
func ProRata(total, part, whole *big.Int) *big.Int {
	share := new(big.Int).Mul(total, part)
	return share.Quo(share, whole)
}

func dec(b *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(b, 0)
}
