package tradebook

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tradebook/date"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseSide parses "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return Buy, nil
	case "SELL", "S":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade type %q", s)
	}
}

// Trade is an immutable BUY or SELL of an instrument.
type Trade struct {
	Date       date.Date
	Instrument string // ticker
	Country    string
	Side       Side
	Quantity   Quantity
	Price      decimal.Decimal // unit price in Currency
	Currency   string
	FxRate     decimal.Decimal // base currency units per unit of Currency
	BondLike   bool            // sovereign gold bonds and the like, priced from a dedicated source

	// where the trade was read from, for diagnostics.
	Source string
	Line   int
}

// Validate checks the trade invariants.
func (t Trade) Validate() error {
	var errs error
	if t.Instrument == "" {
		errs = errors.Join(errs, errors.New("missing instrument"))
	}
	if t.Date.IsZero() {
		errs = errors.Join(errs, errors.New("missing date"))
	}
	if !t.Quantity.IsPositive() {
		errs = errors.Join(errs, fmt.Errorf("quantity must be positive, got %v", t.Quantity))
	}
	if t.Price.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("price must not be negative, got %v", t.Price))
	}
	if t.FxRate.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("exchange rate must not be negative, got %v", t.FxRate))
	}
	return errs
}

// Value returns quantity × price in the trade currency.
func (t Trade) Value() Money {
	return M(t.Quantity.Times(t.Price), t.Currency)
}

// BaseValue returns quantity × price × fx in the base currency.
func (t Trade) BaseValue(base string) Money {
	return t.Value().Convert(t.FxRate, base)
}

// CashFlow returns the signed cash flow of the trade in the base currency: a
// buy is money going out (negative), a sell is money coming back.
func (t Trade) CashFlow(base string) CashFlow {
	amount := t.BaseValue(base)
	if t.Side == Buy {
		amount = amount.Neg()
	}
	return CashFlow{Date: t.Date, Amount: amount}
}

// compareTrades orders by date, and buys before sells on the same day.
func compareTrades(a, b Trade) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Side, b.Side)
}

// SortTrades sorts trades in place in processing order. The sort is stable so
// that trades with the same date and side keep their ingestion order.
func SortTrades(trades []Trade) {
	slices.SortStableFunc(trades, compareTrades)
}

// CashFlow is a dated signed amount in the base currency.
type CashFlow struct {
	Date   date.Date
	Amount Money
}
