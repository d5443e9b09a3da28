package tradebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/logger"
)

// AccountingSystem combines the ledger with the snapshot store. It serves as a
// central point of access for holdings and valuations, using the latest
// snapshot when there is one and the full history otherwise.
type AccountingSystem struct {
	Ledger  *Ledger
	Store   *SnapshotStore // nil to always replay the full history
	Options Options
}

// NewAccountingSystem creates a new accounting system from a ledger and an
// optional snapshot store.
func NewAccountingSystem(ledger *Ledger, store *SnapshotStore, opts Options) (*AccountingSystem, error) {
	if ledger == nil {
		return nil, errors.New("missing ledger")
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = DefaultBaseCurrency
	}
	if opts.DustThreshold.IsNegative() {
		return nil, fmt.Errorf("invalid dust threshold %v", opts.DustThreshold)
	}
	return &AccountingSystem{Ledger: ledger, Store: store, Options: opts}, nil
}

// Holdings returns the holdings on date on.
//
// It resolves from the latest snapshot whose cutoff is before on, and falls
// back to the full history when there is no usable snapshot, or when the
// ledger changed before its cutoff. Both paths give the same metrics.
func (as *AccountingSystem) Holdings(on date.Date) (Holdings, error) {
	ledger := as.Ledger.Until(on)
	if as.Store == nil {
		return ResolveFull(ledger, as.Options)
	}

	s, err := as.Store.LatestBefore(on)
	if err != nil {
		var fallback []Anomaly
		if !errors.Is(err, ErrNoSnapshot) {
			logger.L().Warn().Err(err).Str("dir", as.Store.Dir).Msg("snapshot unusable, replaying full history")
			fallback = append(fallback, Anomaly{Kind: SnapshotUnreadable, Date: on, Detail: err.Error()})
		}
		h, err := ResolveFull(ledger, as.Options)
		h.Anomalies = append(fallback, h.Anomalies...)
		return h, err
	}
	if s.Currency != as.Options.BaseCurrency {
		logger.L().Warn().Int("year", s.Year()).Str("currency", s.Currency).Msg("snapshot in another base currency, replaying full history")
		return ResolveFull(ledger, as.Options)
	}
	if as.Stale(s) {
		logger.L().Warn().Int("year", s.Year()).Int("trades", s.TradeCount).Msg("snapshot is stale, replaying full history")
		h, err := ResolveFull(ledger, as.Options)
		stale := Anomaly{
			Kind:   SnapshotStale,
			Date:   s.Cutoff,
			Detail: fmt.Sprintf("snapshot %d holds %d trades, ledger has %d, run rebuild", s.Year(), s.TradeCount, as.Ledger.Until(s.Cutoff).Len()),
		}
		h.Anomalies = append([]Anomaly{stale}, h.Anomalies...)
		return h, err
	}
	logger.L().Debug().Int("year", s.Year()).Msg("resolving from snapshot")
	return Resolve(s, ledger.After(s.Cutoff), as.Options)
}

// Stale reports whether the ledger changed on or before the cutoff of s since
// s was built.
func (as *AccountingSystem) Stale(s *Snapshot) bool {
	return s.TradeCount != as.Ledger.Until(s.Cutoff).Len()
}

// Summary values the holdings on date on with quotes fetched from src.
func (as *AccountingSystem) Summary(ctx context.Context, src PriceSource, on date.Date, fetch FetchOptions) (Summary, error) {
	h, err := as.Holdings(on)
	if err != nil {
		return Summary{}, err
	}
	quotes, missing := FetchQuotes(ctx, src, h.PricedInstruments(as.Options), fetch)
	for _, a := range missing {
		// Aggregate flags the row, keep the cause in the logs.
		logger.L().Warn().Str("instrument", a.Instrument).Msg(a.Detail)
	}
	return Aggregate(h, quotes, on, as.Options), nil
}

// Snapshot builds the snapshot of year and saves it in the store.
func (as *AccountingSystem) Snapshot(year int) (*Snapshot, error) {
	if as.Store == nil {
		return nil, errors.New("no snapshot store")
	}
	s, ok, err := BuildSnapshot(as.Ledger, date.EndOfYear(year), as.Options)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no trade on or before %v", date.EndOfYear(year))
	}
	if err := as.Store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}
