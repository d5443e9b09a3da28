package tradebook

import (
	"github.com/shopspring/decimal"
)

// Position is the open holding of an instrument, projected from its lot queue.
type Position struct {
	Instrument  string
	Quantity    Quantity
	AverageCost Money // per unit, in Currency
	Realized    Money // in the base currency
	Currency    string
	FxRate      decimal.Decimal // rate of the last trade, used to value the position
	BondLike    bool
}

// Invested returns quantity × average cost × fx in the base currency, the
// currency of Realized.
func (p Position) Invested() Money {
	return M(p.Quantity.Times(p.AverageCost.value).Mul(p.FxRate), p.Realized.cur)
}

// Value returns quantity × price × fx in the base currency.
func (p Position) Value(price decimal.Decimal) Money {
	return M(p.Quantity.Times(price).Mul(p.FxRate), p.Realized.cur)
}
