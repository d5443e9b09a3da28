package tradebook

import (
	"github.com/etnz/tradebook/date"
	"github.com/google/go-cmp/cmp"
)

// INR is a helper for test to create rupee money from const
func INR(v float64) Money { return M(v, "INR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for test to create dates.
func day(s string) date.Date { return date.MustParse(s) }

// buy is a helper for test to create an INR buy trade.
func buy(on, instrument string, qty, price float64) Trade {
	return Trade{Date: day(on), Instrument: instrument, Side: Buy, Quantity: Q(qty), Price: D(price), Currency: "INR", FxRate: D(1)}
}

// sell is a helper for test to create an INR sell trade.
func sell(on, instrument string, qty, price float64) Trade {
	t := buy(on, instrument, qty, price)
	t.Side = Sell
	return t
}

// equateDates compares dates with go-cmp.
var equateDates = cmp.Comparer(func(a, b date.Date) bool { return a == b })
