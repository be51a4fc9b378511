package tracker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/geniass/salewatch/pkg/store"
)

// DefaultThreshold is the minimum fractional drop that counts as a sale.
const DefaultThreshold = 0.01

var hundred = decimal.NewFromInt(100)

// observe records a successfully extracted price on it. The first price
// becomes the baseline. Later prices are compared against that baseline and
// the return value is true only when the item moves into the on-sale state.
func observe(it *store.Item, price float64, at time.Time, threshold float64) bool {
	it.LastCheckedAt = at.UnixMilli()
	it.LastPrice = floatPtr(price)

	if it.BaselinePrice == nil {
		it.BaselinePrice = floatPtr(price)
		it.IsOnSale = false
		it.DiscountPct = 0
		return false
	}

	wasOnSale := it.IsOnSale
	pct, onSale := discount(*it.BaselinePrice, price, threshold)
	it.IsOnSale = onSale
	it.DiscountPct = pct
	return onSale && !wasOnSale
}

// establishBaseline applies only the first-price step and reports whether
// the item changed.
func establishBaseline(it *store.Item, price float64, at time.Time) bool {
	if it.BaselinePrice != nil {
		return false
	}
	observe(it, price, at, DefaultThreshold)
	return true
}

// discount returns the drop from baseline to current as a percentage rounded
// to one decimal, and whether it crosses threshold.
func discount(baseline, current, threshold float64) (float64, bool) {
	if baseline <= 0 {
		return 0, false
	}
	b := decimal.NewFromFloat(baseline)
	c := decimal.NewFromFloat(current)
	limit := b.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(threshold)))
	if !c.LessThan(limit) {
		return 0, false
	}
	pct, _ := b.Sub(c).Div(b).Mul(hundred).Round(1).Float64()
	return pct, true
}

func floatPtr(v float64) *float64 {
	return &v
}
