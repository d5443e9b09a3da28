package tradebook

import (
	"fmt"
	"strings"
)

// DefaultBaseCurrency is the currency cash flows and profits are reported in.
const DefaultBaseCurrency = "INR"

// DefaultDustThreshold is the open quantity at or below which a position is considered closed.
var DefaultDustThreshold = Q(0.001)

// OversellPolicy defines what happens when a sell exceeds the open quantity.
type OversellPolicy int

const (
	// Lenient drops the unmatched quantity and reports an Oversold anomaly.
	Lenient OversellPolicy = iota
	// Strict rejects the sell with ErrOversold.
	Strict
)

func (p OversellPolicy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseOversellPolicy parses a string into an OversellPolicy.
func ParseOversellPolicy(s string) (OversellPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lenient", "":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return 0, fmt.Errorf("unknown oversell policy: %q", s)
	}
}

// Options tunes the accounting engine.
type Options struct {
	BaseCurrency  string
	DustThreshold Quantity
	Oversell      OversellPolicy
	// ExactLots makes the resolver seed positions from the persisted open lots
	// instead of one lot at the weighted average cost.
	ExactLots bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BaseCurrency:  DefaultBaseCurrency,
		DustThreshold: DefaultDustThreshold,
		Oversell:      Lenient,
	}
}

func (o Options) base() string {
	if o.BaseCurrency == "" {
		return DefaultBaseCurrency
	}
	return o.BaseCurrency
}

func (o Options) dust() Quantity {
	if o.DustThreshold.IsZero() {
		return DefaultDustThreshold
	}
	return o.DustThreshold
}

// isOpen reports whether q is above the dust threshold.
func (o Options) isOpen(q Quantity) bool { return q.GreaterThan(o.dust()) }
