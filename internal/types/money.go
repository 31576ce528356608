// README: Common money value object used across modules.
package types

type Money struct {
	Amount   int64
	Currency string
}

// Covers reports whether m is at least the amount of other.
// Currencies are assumed to match; an order never mixes currencies.
func (m Money) Covers(other Money) bool {
	return m.Amount >= other.Amount
}
