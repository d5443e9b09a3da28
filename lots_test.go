package tradebook

import (
	"errors"
	"testing"
)

func TestMatchFIFO(t *testing.T) {
	trades := []Trade{
		buy("2023-01-01", "TCS.NS", 10, 100),
		buy("2023-02-01", "TCS.NS", 10, 120),
		sell("2023-03-01", "TCS.NS", 15, 150),
	}
	m, err := MatchFIFO(trades, DefaultOptions())
	if err != nil {
		t.Fatalf("MatchFIFO() error = %v", err)
	}

	if got, want := m.Realized, INR(650); !got.Equal(want) {
		t.Errorf("Realized = %v, want %v", got, want)
	}
	if got, want := len(m.Lots), 1; got != want {
		t.Fatalf("len(Lots) = %d, want %d", got, want)
	}
	if got, want := m.Lots[0].Quantity, Q(5); !got.Equal(want) {
		t.Errorf("open lot quantity = %v, want %v", got, want)
	}
	if got, want := m.Lots[0].Price, D(120); !got.Equal(want) {
		t.Errorf("open lot price = %v, want %v", got, want)
	}
	p := m.Position()
	if got, want := p.AverageCost, INR(120); !got.Equal(want) {
		t.Errorf("AverageCost = %v, want %v", got, want)
	}
	if got, want := p.Invested(), INR(600); !got.Equal(want) {
		t.Errorf("Invested() = %v, want %v", got, want)
	}
	if len(m.Anomalies) != 0 {
		t.Errorf("Anomalies = %v, want none", m.Anomalies)
	}
}

func TestMatchFIFO_Conservation(t *testing.T) {
	tests := []struct {
		name   string
		trades []Trade
		want   Quantity
	}{
		{
			name:   "buys only",
			trades: []Trade{buy("2023-01-01", "X", 3, 10), buy("2023-01-02", "X", 4.5, 11)},
			want:   Q(7.5),
		},
		{
			name:   "partial sells across lots",
			trades: []Trade{buy("2023-01-01", "X", 3, 10), buy("2023-01-02", "X", 4, 11), sell("2023-01-03", "X", 5, 12), sell("2023-01-04", "X", 1.25, 9)},
			want:   Q(0.75),
		},
		{
			name:   "closed",
			trades: []Trade{buy("2023-01-01", "X", 3, 10), sell("2023-01-03", "X", 3, 12)},
			want:   Q(0),
		},
		{
			name:   "oversold at the end",
			trades: []Trade{buy("2023-01-01", "X", 3, 10), sell("2023-01-03", "X", 5, 12)},
			want:   Q(0),
		},
		{
			name:   "same day sell after buy",
			trades: []Trade{sell("2023-01-01", "X", 2, 12), buy("2023-01-01", "X", 2, 10)},
			want:   Q(0),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			SortTrades(tc.trades)
			m, err := MatchFIFO(tc.trades, DefaultOptions())
			if err != nil {
				t.Fatalf("MatchFIFO() error = %v", err)
			}
			if got := m.Lots.Quantity(); !got.Equal(tc.want) {
				t.Errorf("open quantity = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchFIFO_SameDayOrder(t *testing.T) {
	// the sell is listed first but buys are processed first on the same day.
	trades := []Trade{sell("2023-01-01", "X", 2, 12), buy("2023-01-01", "X", 2, 10)}
	SortTrades(trades)
	m, err := MatchFIFO(trades, DefaultOptions())
	if err != nil {
		t.Fatalf("MatchFIFO() error = %v", err)
	}
	if got, want := m.Realized, INR(4); !got.Equal(want) {
		t.Errorf("Realized = %v, want %v", got, want)
	}
	if len(m.Anomalies) != 0 {
		t.Errorf("Anomalies = %v, want none", m.Anomalies)
	}
}

func TestMatchFIFO_Oversell(t *testing.T) {
	trades := []Trade{
		buy("2023-01-01", "X", 3, 10),
		sell("2023-01-03", "X", 5, 12),
	}

	t.Run("lenient", func(t *testing.T) {
		m, err := MatchFIFO(trades, DefaultOptions())
		if err != nil {
			t.Fatalf("MatchFIFO() error = %v", err)
		}
		if got, want := m.Realized, INR(6); !got.Equal(want) {
			t.Errorf("Realized = %v, want %v", got, want)
		}
		if len(m.Anomalies) != 1 || m.Anomalies[0].Kind != Oversold {
			t.Fatalf("Anomalies = %v, want one %s", m.Anomalies, Oversold)
		}
		if got, want := m.Anomalies[0].Instrument, "X"; got != want {
			t.Errorf("anomaly instrument = %q, want %q", got, want)
		}
	})

	t.Run("strict", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Oversell = Strict
		_, err := MatchFIFO(trades, opts)
		if !errors.Is(err, ErrOversold) {
			t.Errorf("MatchFIFO() error = %v, want %v", err, ErrOversold)
		}
	})
}

func TestMatchFIFO_FxRate(t *testing.T) {
	b := buy("2023-01-01", "AAPL", 2, 100)
	b.Currency, b.FxRate = "USD", D(80)
	s := sell("2023-06-01", "AAPL", 1, 150)
	s.Currency, s.FxRate = "USD", D(85)

	m, err := MatchFIFO([]Trade{b, s}, DefaultOptions())
	if err != nil {
		t.Fatalf("MatchFIFO() error = %v", err)
	}
	// (150 - 100) x 1 x 85
	if got, want := m.Realized, INR(4250); !got.Equal(want) {
		t.Errorf("Realized = %v, want %v", got, want)
	}
	p := m.Position()
	if got, want := p.AverageCost, USD(100); !got.Equal(want) {
		t.Errorf("AverageCost = %v, want %v", got, want)
	}
	// the remaining unit valued at the last rate.
	if got, want := p.Invested(), INR(8500); !got.Equal(want) {
		t.Errorf("Invested() = %v, want %v", got, want)
	}
}

func TestMatchFIFO_MixedInstruments(t *testing.T) {
	_, err := MatchFIFO([]Trade{buy("2023-01-01", "X", 1, 1), buy("2023-01-02", "Y", 1, 1)}, DefaultOptions())
	if err == nil {
		t.Errorf("MatchFIFO() error = nil, want an instrument mismatch")
	}
}

func TestLots_AverageCost(t *testing.T) {
	if got := (Lots{}).AverageCost(); !got.IsZero() {
		t.Errorf("AverageCost() of no lot = %v, want 0", got)
	}
	lots := Lots{{Quantity: Q(1), Price: D(10)}, {Quantity: Q(3), Price: D(20)}}
	if got, want := lots.AverageCost(), D(17.5); !got.Equal(want) {
		t.Errorf("AverageCost() = %v, want %v", got, want)
	}
	if got, want := lots.Cost(), D(70); !got.Equal(want) {
		t.Errorf("Cost() = %v, want %v", got, want)
	}
}
