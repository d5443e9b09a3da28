package tradebook

import (
	"fmt"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// Lot is the unsold remainder of a single purchase of an instrument.
type Lot struct {
	Date     date.Date       `json:"date"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // unit price in the instrument currency
	Order    int             `json:"order"` // acquisition order, 0 is the oldest
}

// Lots is a FIFO queue of lots, oldest first.
type Lots []Lot

// Quantity returns the total open quantity.
func (l Lots) Quantity() Quantity {
	var q Quantity
	for _, lot := range l {
		q = q.Add(lot.Quantity)
	}
	return q
}

// Cost returns Σ quantity × price over the open lots.
func (l Lots) Cost() decimal.Decimal {
	cost := decimal.Zero
	for _, lot := range l {
		cost = cost.Add(lot.Quantity.Times(lot.Price))
	}
	return cost
}

// AverageCost returns the quantity-weighted average price of the open lots,
// zero when there is none.
func (l Lots) AverageCost() decimal.Decimal {
	q := l.Quantity()
	if q.IsZero() {
		return decimal.Zero
	}
	return l.Cost().Div(q.value)
}

// Match is the result of FIFO matching the trades of one instrument.
type Match struct {
	Instrument string
	Lots       Lots
	Realized   Money // in the base currency
	Anomalies  []Anomaly
	Currency   string          // currency of the last trade
	LastFx     decimal.Decimal // exchange rate of the last trade
	BondLike   bool
	Trades     int
}

// Position returns the position projected from the match.
func (m Match) Position() Position {
	return Position{
		Instrument:  m.Instrument,
		Quantity:    m.Lots.Quantity(),
		AverageCost: M(m.Lots.AverageCost(), m.Currency),
		Realized:    m.Realized,
		Currency:    m.Currency,
		FxRate:      m.LastFx,
		BondLike:    m.BondLike,
	}
}

// MatchFIFO matches the sells of one instrument against its oldest open lots.
//
// trades must belong to a single instrument and be sorted in processing order
// (see SortTrades). Each sell consumes the head of the lot queue and realizes
// (sell price − lot price) × quantity × sell fx rate in the base currency.
// A sell larger than the open quantity is clamped and reported as an Oversold
// anomaly, or rejected with ErrOversold under the Strict policy.
func MatchFIFO(trades []Trade, opts Options) (Match, error) {
	f := newFIFO("", opts)
	for _, t := range trades {
		if err := f.apply(t); err != nil {
			return Match{}, err
		}
	}
	return f.match(), nil
}

// fifo is the lot queue of one instrument.
type fifo struct {
	opts       Options
	instrument string
	lots       Lots
	realized   decimal.Decimal
	next       int // order of the next lot
	anomalies  []Anomaly
	currency   string
	fx         decimal.Decimal
	bondLike   bool
	trades     int
}

func newFIFO(instrument string, opts Options) *fifo {
	return &fifo{opts: opts, instrument: instrument, realized: decimal.Zero, fx: decimal.NewFromInt(1)}
}

// seed pushes pre-existing lots, typically from a snapshot.
func (f *fifo) seed(lots Lots) {
	for _, lot := range lots {
		if !lot.Quantity.IsPositive() {
			continue
		}
		lot.Order = f.next
		f.next++
		f.lots = append(f.lots, lot)
	}
}

func (f *fifo) apply(t Trade) error {
	if f.instrument == "" {
		f.instrument = t.Instrument
	}
	if t.Instrument != f.instrument {
		return fmt.Errorf("cannot match %s trade on %v in %s lots", t.Instrument, t.Date, f.instrument)
	}
	f.trades++
	f.currency, f.fx = t.Currency, t.FxRate
	f.bondLike = f.bondLike || t.BondLike

	switch t.Side {
	case Buy:
		f.lots = append(f.lots, Lot{Date: t.Date, Quantity: t.Quantity, Price: t.Price, Order: f.next})
		f.next++
	case Sell:
		remaining := t.Quantity
		for len(f.lots) > 0 && remaining.IsPositive() {
			head := &f.lots[0]
			consumed := head.Quantity.Min(remaining)
			gain := consumed.Times(t.Price.Sub(head.Price)).Mul(t.FxRate)
			f.realized = f.realized.Add(gain)
			head.Quantity = head.Quantity.Sub(consumed)
			remaining = remaining.Sub(consumed)
			if head.Quantity.IsZero() {
				f.lots = f.lots[1:]
			}
		}
		if remaining.IsPositive() {
			if f.opts.Oversell == Strict {
				return fmt.Errorf("%s sell of %v on %v: %v units unmatched: %w", t.Instrument, t.Quantity, t.Date, remaining, ErrOversold)
			}
			f.anomalies = append(f.anomalies, tradeAnomaly(Oversold, t, "%v units sold without open lots, dropped", remaining))
		}
	default:
		return fmt.Errorf("unsupported trade side %v", t.Side)
	}
	return nil
}

func (f *fifo) match() Match {
	return Match{
		Instrument: f.instrument,
		Lots:       f.lots,
		Realized:   M(f.realized, f.opts.base()),
		Anomalies:  f.anomalies,
		Currency:   f.currency,
		LastFx:     f.fx,
		BondLike:   f.bondLike,
		Trades:     f.trades,
	}
}
