package tradebook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/tradebook/date"
)

var (
	// ErrOversold is returned under the Strict policy when a sell exceeds the open quantity.
	ErrOversold = errors.New("sell exceeds open quantity")
	// ErrNoPrice is returned by a PriceSource that has no price for an instrument.
	ErrNoPrice = errors.New("no price available")
	// ErrNoSnapshot is returned by a SnapshotStore that has no snapshot for the request.
	ErrNoSnapshot = errors.New("no snapshot")
)

// AnomalyKind classifies a data-quality problem.
type AnomalyKind string

const (
	Oversold           AnomalyKind = "oversold"
	MissingFxRate      AnomalyKind = "missing-fx-rate"
	MalformedRow       AnomalyKind = "malformed-row"
	DustResidual       AnomalyKind = "dust-residual"
	PriceMissing       AnomalyKind = "price-missing"
	SnapshotUnreadable AnomalyKind = "snapshot-unreadable"
	SnapshotStale      AnomalyKind = "snapshot-stale"
	XIRRDegenerate     AnomalyKind = "xirr-degenerate"
	XIRRNonConvergence AnomalyKind = "xirr-non-convergence"
)

// Anomaly is a recoverable data-quality problem attached to a result.
//
// Anomalies never stop a computation, they are reported alongside it and point
// to the instrument, trade date and ledger line they come from when known.
type Anomaly struct {
	Kind       AnomalyKind
	Instrument string
	Date       date.Date
	Source     string // ledger file name
	Line       int    // line in Source, 1-based
	Detail     string
}

func (a Anomaly) String() string {
	var b strings.Builder
	b.WriteString(string(a.Kind))
	if a.Instrument != "" {
		fmt.Fprintf(&b, " %s", a.Instrument)
	}
	if !a.Date.IsZero() {
		fmt.Fprintf(&b, " on %s", a.Date)
	}
	if a.Source != "" {
		fmt.Fprintf(&b, " (%s:%d)", a.Source, a.Line)
	}
	if a.Detail != "" {
		fmt.Fprintf(&b, ": %s", a.Detail)
	}
	return b.String()
}

// tradeAnomaly returns an anomaly located at trade t.
func tradeAnomaly(kind AnomalyKind, t Trade, format string, args ...any) Anomaly {
	return Anomaly{
		Kind:       kind,
		Instrument: t.Instrument,
		Date:       t.Date,
		Source:     t.Source,
		Line:       t.Line,
		Detail:     fmt.Sprintf(format, args...),
	}
}
