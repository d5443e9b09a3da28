package tradebook

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Instrument identifies what to price.
type Instrument struct {
	Ticker   string
	Currency string
	BondLike bool
}

// Quote is the current and previous closing price of an instrument, in the
// instrument currency.
type Quote struct {
	Price         decimal.Decimal
	PreviousClose decimal.Decimal // zero when unknown
	Name          string
	Source        string
}

// Quotes indexes quotes by ticker. A missing entry means the price is unknown.
type Quotes map[string]Quote

// PriceSource provides the latest quote of an instrument.
//
// Implementations return an error wrapping ErrNoPrice when they do not know the
// instrument.
type PriceSource interface {
	Quote(ctx context.Context, inst Instrument) (Quote, error)
}

// PriceSourceFunc adapts a function to a PriceSource.
type PriceSourceFunc func(ctx context.Context, inst Instrument) (Quote, error)

func (f PriceSourceFunc) Quote(ctx context.Context, inst Instrument) (Quote, error) {
	return f(ctx, inst)
}

// FetchOptions bounds FetchQuotes.
type FetchOptions struct {
	Timeout  time.Duration // per instrument, 0 for none
	Parallel int           // max concurrent fetches, 0 for unbounded
}

// FetchQuotes fetches the quotes of instruments in parallel and waits for all
// of them.
//
// A failed or timed out fetch does not abort the others: the instrument is left
// out of the returned Quotes and reported as a PriceMissing anomaly.
func FetchQuotes(ctx context.Context, src PriceSource, instruments []Instrument, opts FetchOptions) (Quotes, []Anomaly) {
	var (
		mu        sync.Mutex
		quotes    = make(Quotes, len(instruments))
		anomalies []Anomaly
	)
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for _, inst := range instruments {
		g.Go(func() error {
			qctx := ctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}
			q, err := src.Quote(qctx, inst)
			if err == nil && !q.Price.IsPositive() {
				err = fmt.Errorf("%s: non positive price %v: %w", inst.Ticker, q.Price, ErrNoPrice)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				anomalies = append(anomalies, Anomaly{Kind: PriceMissing, Instrument: inst.Ticker, Detail: err.Error()})
				return nil
			}
			quotes[inst.Ticker] = q
			return nil
		})
	}
	g.Wait() // goroutines never fail, errors are anomalies
	slices.SortFunc(anomalies, func(a, b Anomaly) int { return cmp.Compare(a.Instrument, b.Instrument) })
	return quotes, anomalies
}

// PricedInstruments returns what to price for the open positions of h.
func (h Holdings) PricedInstruments(opts Options) []Instrument {
	var list []Instrument
	for _, instrument := range h.Instruments(opts) {
		p := h.Positions[instrument]
		list = append(list, Instrument{Ticker: instrument, Currency: p.Currency, BondLike: p.BondLike})
	}
	return list
}
