package tradebook

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// Row is the valuation of one open position.
type Row struct {
	Instrument      string
	Name            string
	Quantity        Quantity
	AverageCost     Money // per unit, instrument currency
	Currency        string
	FxRate          decimal.Decimal
	BondLike        bool
	Invested        Money
	Realized        Money
	PriceMissing    bool
	Price           decimal.Decimal // zero when PriceMissing
	PreviousClose   decimal.Decimal
	PriceSource     string
	MarketValue     Money
	UnrealizedPL    Money
	UnrealizedPLPct Percent
	DailyChange     Money
	DailyChangePct  Percent
}

// Summary is the valuation of the whole portfolio on a date, in the base
// currency.
//
// Market value, unrealized profit and daily change only cover the rows with a
// known price. Total invested covers every open row.
type Summary struct {
	On              date.Date
	Currency        string
	TotalInvested   Money
	PricedInvested  Money // invested amount of the rows with a price
	MarketValue     Money
	UnrealizedPL    Money
	UnrealizedPLPct Percent // relative to PricedInvested
	RealizedProfit  Money
	DailyChange     Money
	DailyChangePct  Percent
	XIRR            Percent
	XIRRValid       bool
	HoldingsCount   int
	Rows            []Row // sorted by instrument
	Anomalies       []Anomaly
	Source          string
}

// TotalPL returns realized plus unrealized profit.
func (s Summary) TotalPL() Money { return s.RealizedProfit.Add(s.UnrealizedPL) }

// Aggregate values the holdings with quotes on date on.
//
// The realized profit covers every instrument, including closed ones. The XIRR
// is computed on the cash flows of h plus a terminal flow of the total market
// value on date on; it is reported as 0 with an anomaly when it cannot be
// computed.
func Aggregate(h Holdings, quotes Quotes, on date.Date, opts Options) Summary {
	base := h.Currency
	if base == "" {
		base = opts.base()
	}
	zero := M(0, base)
	s := Summary{
		On:             on,
		Currency:       base,
		TotalInvested:  zero,
		PricedInvested: zero,
		MarketValue:    zero,
		UnrealizedPL:   zero,
		RealizedProfit: zero,
		DailyChange:    zero,
		Source:         h.Source,
		Anomalies:      slices.Clone(h.Anomalies),
	}
	previousValue := zero

	for _, instrument := range slices.Sorted(maps.Keys(h.Positions)) {
		p := h.Positions[instrument]
		s.RealizedProfit = s.RealizedProfit.Add(p.Realized.In(base))
		if !opts.isOpen(p.Quantity) {
			continue
		}
		row := Row{
			Instrument:  instrument,
			Name:        instrument,
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost,
			Currency:    p.Currency,
			FxRate:      p.FxRate,
			BondLike:    p.BondLike,
			Invested:    p.Invested().In(base),
			Realized:    p.Realized.In(base),
		}
		s.TotalInvested = s.TotalInvested.Add(row.Invested)

		q, ok := quotes[instrument]
		if !ok || !q.Price.IsPositive() {
			row.PriceMissing = true
			row.MarketValue, row.UnrealizedPL, row.DailyChange = zero, zero, zero
			s.Anomalies = append(s.Anomalies, Anomaly{Kind: PriceMissing, Instrument: instrument, Date: on, Detail: "excluded from market value"})
			s.Rows = append(s.Rows, row)
			continue
		}
		if q.Name != "" {
			row.Name = q.Name
		}
		prev := q.PreviousClose
		if !prev.IsPositive() {
			prev = q.Price
		}
		row.Price, row.PreviousClose, row.PriceSource = q.Price, prev, q.Source
		row.MarketValue = p.Value(q.Price).In(base)
		row.UnrealizedPL = row.MarketValue.Sub(row.Invested)
		row.UnrealizedPLPct = PercentOf(row.UnrealizedPL, row.Invested)
		prevValue := p.Value(prev).In(base)
		row.DailyChange = row.MarketValue.Sub(prevValue)
		row.DailyChangePct = PercentOf(row.DailyChange, prevValue)

		s.PricedInvested = s.PricedInvested.Add(row.Invested)
		s.MarketValue = s.MarketValue.Add(row.MarketValue)
		s.UnrealizedPL = s.UnrealizedPL.Add(row.UnrealizedPL)
		s.DailyChange = s.DailyChange.Add(row.DailyChange)
		previousValue = previousValue.Add(prevValue)
		s.Rows = append(s.Rows, row)
	}
	s.HoldingsCount = len(s.Rows)
	s.UnrealizedPLPct = PercentOf(s.UnrealizedPL, s.PricedInvested)
	s.DailyChangePct = PercentOf(s.DailyChange, previousValue)

	s.XIRR, s.XIRRValid = portfolioXIRR(h.CashFlows, on, s.MarketValue, &s.Anomalies)
	return s
}

// portfolioXIRR computes the XIRR with the terminal market value, recording
// why it could not in anomalies.
func portfolioXIRR(flows []CashFlow, on date.Date, market Money, anomalies *[]Anomaly) (Percent, bool) {
	if !market.IsPositive() {
		*anomalies = append(*anomalies, Anomaly{Kind: XIRRDegenerate, Date: on, Detail: "no market value"})
		return 0, false
	}
	all := append(slices.Clone(flows), terminalFlow(on, market))
	rate, err := XIRR(all)
	switch {
	case errors.Is(err, ErrXIRRDegenerate):
		*anomalies = append(*anomalies, Anomaly{Kind: XIRRDegenerate, Date: on, Detail: fmt.Sprintf("%d cash flows", len(all))})
		return 0, false
	case err != nil:
		*anomalies = append(*anomalies, Anomaly{Kind: XIRRNonConvergence, Date: on, Detail: err.Error()})
		return 0, false
	}
	return rate, true
}
