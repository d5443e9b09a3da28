package tradebook

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/tradebook/date"
)

// Snapshot is the persisted state of the portfolio at a cutoff date, usually
// the end of a year.
//
// Replaying every trade on or before Cutoff yields exactly the Positions,
// CashFlows and realized profits it holds, so that later queries only need to
// replay the trades after Cutoff.
type Snapshot struct {
	Cutoff     date.Date
	Currency   string // base currency
	Positions  map[string]Position
	CashFlows  []CashFlow
	TradeCount int
	// Closed holds the realized profit of instruments at or below the dust
	// threshold, they have no entry in Positions.
	Closed map[string]Money
	// OpenLots holds the full FIFO queue of each position, and the residual
	// lots of the closed instruments that still hold dust.
	OpenLots map[string]Lots

	// Anomalies found while building, not persisted.
	Anomalies []Anomaly
}

// Year returns the year of the cutoff.
func (s *Snapshot) Year() int { return s.Cutoff.Year() }

// Instruments returns the sorted instruments of the open positions.
func (s *Snapshot) Instruments() []string {
	return slices.Sorted(maps.Keys(s.Positions))
}

// Invested returns the total invested amount of the open positions.
func (s *Snapshot) Invested() Money {
	total := M(0, s.Currency)
	for _, p := range s.Positions {
		total = total.Add(p.Invested())
	}
	return total
}

// Realized returns the realized profit of all instruments, open or closed.
func (s *Snapshot) Realized() Money {
	total := M(0, s.Currency)
	for _, p := range s.Positions {
		total = total.Add(p.Realized)
	}
	for _, r := range s.Closed {
		total = total.Add(r)
	}
	return total
}

// BuildSnapshot matches every trade on or before cutoff and captures the
// resulting positions and cash flows.
//
// It returns ok false, and no error, when the ledger has no trade on or
// before cutoff.
func BuildSnapshot(l *Ledger, cutoff date.Date, opts Options) (s *Snapshot, ok bool, err error) {
	trades := l.Until(cutoff).trades
	if len(trades) == 0 {
		return nil, false, nil
	}
	base := opts.base()
	s = &Snapshot{
		Cutoff:     cutoff,
		Currency:   base,
		Positions:  make(map[string]Position),
		Closed:     make(map[string]Money),
		OpenLots:   make(map[string]Lots),
		TradeCount: len(trades),
	}

	groups := groupByInstrument(trades)
	for _, instrument := range slices.Sorted(maps.Keys(groups)) {
		m, err := MatchFIFO(groups[instrument], opts)
		if err != nil {
			return nil, false, fmt.Errorf("snapshot %d: %w", cutoff.Year(), err)
		}
		s.Anomalies = append(s.Anomalies, m.Anomalies...)
		pos := m.Position()
		if !opts.isOpen(pos.Quantity) {
			if pos.Quantity.IsPositive() {
				s.Anomalies = append(s.Anomalies, Anomaly{
					Kind:       DustResidual,
					Instrument: instrument,
					Date:       cutoff,
					Detail:     fmt.Sprintf("%v units left, treated as closed", pos.Quantity),
				})
				s.OpenLots[instrument] = m.Lots
			}
			s.Closed[instrument] = m.Realized
			continue
		}
		s.Positions[instrument] = pos
		s.OpenLots[instrument] = m.Lots
	}

	for _, t := range trades {
		s.CashFlows = append(s.CashFlows, t.CashFlow(base))
	}
	return s, true, nil
}
