package valuation

import "github.com/shopspring/decimal"

type Direction string

const (
	Positive Direction = "positive"
	Negative Direction = "negative"
	Neutral  Direction = "neutral"
)

func Classify(pct decimal.Decimal) Direction {
	switch pct.Sign() {
	case 1:
		return Positive
	case -1:
		return Negative
	}
	return Neutral
}

// TrendIcon maps a signed change to an arrow using the same partition as Classify.
func TrendIcon(pct decimal.Decimal) string {
	switch Classify(pct) {
	case Positive:
		return "↑"
	case Negative:
		return "↓"
	}
	return "→"
}

// Signed renders d with the given number of places and an explicit "+" for
// non-negative values.
func Signed(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	if r.IsNegative() {
		return r.StringFixed(places)
	}
	return "+" + r.StringFixed(places)
}
