package tradebook

import (
	"iter"
	"maps"
	"slices"

	"github.com/etnz/tradebook/date"
)

// Ledger is the append-only list of trades.
//
// In a Ledger trades are always in processing order: by date, buys before
// sells on the same day, then in the order they were appended.
type Ledger struct {
	trades []Trade
}

// NewLedger creates a ledger holding trades.
func NewLedger(trades ...Trade) *Ledger {
	l := &Ledger{}
	l.Append(trades...)
	return l
}

// Append appends trades to this ledger and maintains the processing order.
func (l *Ledger) Append(trades ...Trade) {
	l.trades = append(l.trades, trades...)
	SortTrades(l.trades)
}

// Len returns the number of trades.
func (l *Ledger) Len() int { return len(l.trades) }

// Trades returns a copy of all the trades in processing order.
func (l *Ledger) Trades() []Trade { return slices.Clone(l.trades) }

// All iterates over all trades in processing order.
func (l *Ledger) All() iter.Seq[Trade] { return slices.Values(l.trades) }

// Until returns a ledger with the trades on or before cutoff.
func (l *Ledger) Until(cutoff date.Date) *Ledger {
	i := l.split(cutoff)
	return &Ledger{trades: slices.Clone(l.trades[:i])}
}

// After returns the trades strictly after cutoff, in processing order.
func (l *Ledger) After(cutoff date.Date) []Trade {
	i := l.split(cutoff)
	return slices.Clone(l.trades[i:])
}

// split returns the index of the first trade after cutoff.
func (l *Ledger) split(cutoff date.Date) int {
	i, _ := slices.BinarySearchFunc(l.trades, cutoff.Add(1), func(t Trade, d date.Date) int {
		return t.Date.Compare(d)
	})
	return i
}

// First returns the date of the first trade, zero for an empty ledger.
func (l *Ledger) First() date.Date {
	if len(l.trades) == 0 {
		return date.Date{}
	}
	return l.trades[0].Date
}

// Last returns the date of the last trade, zero for an empty ledger.
func (l *Ledger) Last() date.Date {
	if len(l.trades) == 0 {
		return date.Date{}
	}
	return l.trades[len(l.trades)-1].Date
}

// Years returns every calendar year that has at least one trade.
func (l *Ledger) Years() []int {
	var years []int
	for _, t := range l.trades {
		if n := len(years); n == 0 || years[n-1] != t.Date.Year() {
			years = append(years, t.Date.Year())
		}
	}
	return years
}

// Instruments returns the sorted list of instruments traded in the ledger.
func (l *Ledger) Instruments() []string {
	return slices.Sorted(maps.Keys(groupByInstrument(l.trades)))
}

// groupByInstrument splits trades per instrument keeping their relative order.
func groupByInstrument(trades []Trade) map[string][]Trade {
	groups := make(map[string][]Trade)
	for _, t := range trades {
		groups[t.Instrument] = append(groups[t.Instrument], t)
	}
	return groups
}
