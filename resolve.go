package tradebook

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/tradebook/date"
)

// Holdings is the state of every instrument ever traded, with the cash-flow
// log needed for XIRR.
type Holdings struct {
	Currency  string
	Positions map[string]Position // includes closed instruments for their realized profit
	CashFlows []CashFlow
	Anomalies []Anomaly
	Source    string // "snapshot 2024" or "full history"
	Last      date.Date
}

// Instruments returns the sorted instruments with an open quantity above the
// dust threshold.
func (h Holdings) Instruments(opts Options) []string {
	var open []string
	for _, instrument := range slices.Sorted(maps.Keys(h.Positions)) {
		if opts.isOpen(h.Positions[instrument].Quantity) {
			open = append(open, instrument)
		}
	}
	return open
}

// Resolve rebuilds the holdings from a snapshot and the trades after its cutoff.
//
// Each open position of the snapshot is seeded as one lot at its average cost
// dated at the cutoff, or with its persisted open lots when opts.ExactLots is
// set. Dust left in closed instruments is seeded the same way. The realized
// profit of the snapshot is carried forward, and later trades go through the
// same FIFO matching as MatchFIFO. Trades on or before the cutoff are already
// accounted for in the snapshot and are ignored.
func Resolve(s *Snapshot, later []Trade, opts Options) (Holdings, error) {
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = s.Currency
	}
	queues := make(map[string]*fifo)
	for instrument, p := range s.Positions {
		f := newFIFO(instrument, opts)
		if lots, ok := s.OpenLots[instrument]; opts.ExactLots && ok && lots.Quantity().Equal(p.Quantity) {
			f.seed(lots)
		} else {
			f.seed(Lots{{Date: s.Cutoff, Quantity: p.Quantity, Price: p.AverageCost.value}})
		}
		f.realized = p.Realized.value
		f.currency, f.fx, f.bondLike = p.Currency, p.FxRate, p.BondLike
		queues[instrument] = f
	}
	for instrument, r := range s.Closed {
		f := newFIFO(instrument, opts)
		// dust stays sellable.
		if lots := s.OpenLots[instrument]; opts.ExactLots {
			f.seed(lots)
		} else if q := lots.Quantity(); q.IsPositive() {
			f.seed(Lots{{Date: s.Cutoff, Quantity: q, Price: lots.AverageCost()}})
		}
		f.realized = r.value
		queues[instrument] = f
	}

	h := Holdings{
		Currency:  opts.base(),
		Positions: make(map[string]Position),
		CashFlows: slices.Clone(s.CashFlows),
		Source:    fmt.Sprintf("snapshot %d", s.Year()),
		Last:      s.Cutoff,
	}

	var trades []Trade
	for _, t := range later {
		if t.Date.After(s.Cutoff) {
			trades = append(trades, t)
		}
	}
	SortTrades(trades)
	for _, t := range trades {
		f, ok := queues[t.Instrument]
		if !ok {
			f = newFIFO(t.Instrument, opts)
			queues[t.Instrument] = f
		}
		if err := f.apply(t); err != nil {
			return Holdings{}, err
		}
		h.CashFlows = append(h.CashFlows, t.CashFlow(h.Currency))
		h.Last = t.Date
	}

	for _, instrument := range slices.Sorted(maps.Keys(queues)) {
		m := queues[instrument].match()
		h.Positions[instrument] = m.Position()
		h.Anomalies = append(h.Anomalies, m.Anomalies...)
	}
	return h, nil
}

// ResolveFull computes the holdings by matching the full history of l.
func ResolveFull(l *Ledger, opts Options) (Holdings, error) {
	h := Holdings{
		Currency:  opts.base(),
		Positions: make(map[string]Position),
		Source:    "full history",
		Last:      l.Last(),
	}
	groups := groupByInstrument(l.trades)
	for _, instrument := range slices.Sorted(maps.Keys(groups)) {
		m, err := MatchFIFO(groups[instrument], opts)
		if err != nil {
			return Holdings{}, err
		}
		h.Positions[instrument] = m.Position()
		h.Anomalies = append(h.Anomalies, m.Anomalies...)
	}
	for _, t := range l.trades {
		h.CashFlows = append(h.CashFlows, t.CashFlow(h.Currency))
	}
	return h, nil
}
