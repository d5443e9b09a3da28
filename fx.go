package tradebook

import (
	"strings"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// RateProvider provides the rate converting one unit of currency into the
// base currency on a date.
type RateProvider interface {
	Rate(currency string, on date.Date) (decimal.Decimal, bool)
}

// BaseRate knows only the base currency, at rate 1.
type BaseRate string

func (b BaseRate) Rate(currency string, on date.Date) (decimal.Decimal, bool) {
	if strings.EqualFold(currency, string(b)) {
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

// FixedRates uses a constant rate per currency.
type FixedRates map[string]decimal.Decimal

func (f FixedRates) Rate(currency string, on date.Date) (decimal.Decimal, bool) {
	r, ok := f[strings.ToUpper(currency)]
	return r, ok && r.IsPositive()
}

// Rates asks each provider in turn.
type Rates []RateProvider

func (rs Rates) Rate(currency string, on date.Date) (decimal.Decimal, bool) {
	for _, r := range rs {
		if r == nil {
			continue
		}
		if rate, ok := r.Rate(currency, on); ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// DefaultRates returns the rates used when a ledger row has no exchange rate:
// 1 for base, the fallback rate for USD.
func DefaultRates(base string, usdRate decimal.Decimal) Rates {
	rates := Rates{BaseRate(base)}
	if usdRate.IsPositive() {
		rates = append(rates, FixedRates{"USD": usdRate})
	}
	return rates
}

// fillRate sets the exchange rate of t from p. Unknown currencies get a rate
// of 1 and a MissingFxRate anomaly.
func fillRate(p RateProvider, t *Trade) (Anomaly, bool) {
	if p != nil {
		if r, ok := p.Rate(t.Currency, t.Date); ok {
			t.FxRate = r
			return Anomaly{}, false
		}
	}
	t.FxRate = decimal.NewFromInt(1)
	return tradeAnomaly(MissingFxRate, *t, "no rate for %s, using 1", t.Currency), true
}
