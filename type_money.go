package tradebook

import (
	"encoding/json"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T number](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	if cur.Template == "" {
		// unknown to go-money
		return m.value.StringFixed(2) + " " + m.cur
	}
	fraction := int32(cur.Fraction)
	dec := m.value.Round(fraction).Shift(fraction)
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string              { return m.cur }
func (m Money) Value() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool            { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                  { return m.value.IsZero() }
func (m Money) IsPositive() bool              { return m.value.IsPositive() }
func (m Money) IsNegative() bool              { return m.value.IsNegative() }
func (m Money) LessThan(amount Money) bool    { return m.value.LessThan(amount.value) }
func (m Money) GreaterThan(n Money) bool      { return m.value.GreaterThan(n.value) }
func (m Money) Neg() Money                    { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money                    { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money          { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money          { return Money{value: m.value.Div(n.value), cur: m.cur} }
func (m Money) Round(places int32) Money      { return Money{value: m.value.Round(places), cur: m.cur} }
func (m Money) In(currency string) Money      { return Money{value: m.value, cur: currency} }
func (m Money) Scale(r decimal.Decimal) Money { return Money{value: m.value.Mul(r), cur: m.cur} }

// Convert returns m expressed in currency using rate (units of currency per unit of m's currency).
func (m Money) Convert(rate decimal.Decimal, currency string) Money {
	return Money{value: m.value.Mul(rate), cur: currency}
}

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// AsFloat returns an approximation of the amount, for XIRR and percentages only.
func (m Money) AsFloat() float64 { return m.value.InexactFloat64() }

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

type jsonMoney struct {
	Currency string          `json:"currency,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// MarshalJSON persists every digit, snapshots need an exact round trip.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMoney{Currency: m.cur, Amount: m.value})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var j jsonMoney
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	m.value, m.cur = j.Amount, j.Currency
	return nil
}
