package tradebook

import (
	"fmt"
	"math"
)

// Percent is a rate in percent: 12.5 is 12.5%.
type Percent float64

// percentTolerance is the precision of Percent.Equal.
const percentTolerance = 1e-4

// PercentOf returns part as a percentage of whole, 0 when whole is zero.
func PercentOf(part, whole Money) Percent {
	if whole.IsZero() {
		return 0
	}
	return Percent(part.value.Div(whole.value).Shift(2).InexactFloat64())
}

// Equal reports whether p and q are within percentTolerance.
func (p Percent) Equal(q Percent) bool { return math.Abs(float64(p-q)) < percentTolerance }

// String formats p with two decimals, like "12.50%".
func (p Percent) String() string { return fmt.Sprintf("%.2f%%", float64(p)) }

// SignedString formats p with an explicit sign. Values that show as zero are
// written "-".
func (p Percent) SignedString() string {
	s := fmt.Sprintf("%+.2f%%", float64(p))
	if s == "+0.00%" || s == "-0.00%" {
		return "-"
	}
	return s
}
