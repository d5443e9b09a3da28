package renderer

import (
	"cmp"
	"maps"
	"slices"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
)

// Holdings is the view of the positions for the holdings report.
type Holdings struct {
	On        date.Date
	Source    string
	Open      []tradebook.Position
	Closed    []ClosedLine
	Invested  tradebook.Money
	Realized  tradebook.Money
	Anomalies []tradebook.Anomaly
}

// ClosedLine is an instrument with no open quantity left.
type ClosedLine struct {
	Instrument string
	Realized   tradebook.Money
}

// NewHoldings builds the holdings view of h on date on.
func NewHoldings(h tradebook.Holdings, on date.Date, opts tradebook.Options) *Holdings {
	v := &Holdings{
		On:        on,
		Source:    h.Source,
		Invested:  tradebook.M(0, h.Currency),
		Realized:  tradebook.M(0, h.Currency),
		Anomalies: h.Anomalies,
	}
	open := make(map[string]bool)
	for _, instrument := range h.Instruments(opts) {
		open[instrument] = true
		p := h.Positions[instrument]
		v.Open = append(v.Open, p)
		v.Invested = v.Invested.Add(p.Invested())
	}
	for _, instrument := range slices.Sorted(maps.Keys(h.Positions)) {
		p := h.Positions[instrument]
		v.Realized = v.Realized.Add(p.Realized)
		if !open[instrument] && !p.Realized.IsZero() {
			v.Closed = append(v.Closed, ClosedLine{Instrument: instrument, Realized: p.Realized})
		}
	}
	return v
}

// Snapshot is the view of a persisted snapshot for the verify report.
type Snapshot struct {
	Year          int
	Cutoff        date.Date
	HoldingsCount int
	ClosedCount   int
	Invested      tradebook.Money
	Realized      tradebook.Money
	TradeCount    int
	CashFlowCount int
	Top           []SnapshotLine // largest invested first
	Anomalies     []tradebook.Anomaly
}

// SnapshotLine is one position of a snapshot.
type SnapshotLine struct {
	Instrument  string
	Quantity    tradebook.Quantity
	AverageCost tradebook.Money
	Invested    tradebook.Money
}

// NewSnapshot builds the verify view of s listing the top n positions.
func NewSnapshot(s *tradebook.Snapshot, n int) *Snapshot {
	v := &Snapshot{
		Year:          s.Year(),
		Cutoff:        s.Cutoff,
		HoldingsCount: len(s.Positions),
		ClosedCount:   len(s.Closed),
		Invested:      s.Invested(),
		Realized:      s.Realized(),
		TradeCount:    s.TradeCount,
		CashFlowCount: len(s.CashFlows),
		Anomalies:     s.Anomalies,
	}
	for _, instrument := range s.Instruments() {
		p := s.Positions[instrument]
		v.Top = append(v.Top, SnapshotLine{Instrument: instrument, Quantity: p.Quantity, AverageCost: p.AverageCost, Invested: p.Invested()})
	}
	slices.SortStableFunc(v.Top, func(a, b SnapshotLine) int {
		return cmp.Compare(b.Invested.AsFloat(), a.Invested.AsFloat())
	})
	if len(v.Top) > n {
		v.Top = v.Top[:n]
	}
	return v
}

// Status describes the ledger and snapshot store.
type Status struct {
	Files      []string
	Trades     int
	First      date.Date
	Last       date.Date
	Snapshots  []int
	Resolution string // how holdings would be resolved today
	Stale      bool   // the ledger changed since the latest snapshot
	Anomalies  []tradebook.Anomaly
}
