package ledger

import (
	"github.com/govalues/decimal"
	"github.com/govalues/money"
)

// AmountFromDecimal builds a money.Amount in the given currency from a
// decimal value, zero-padding the scale when the value carries fewer digits
// than the currency requires.
func AmountFromDecimal(code string, d decimal.Decimal) (money.Amount, error) {
	curr, err := money.ParseCurr(code)
	if err != nil {
		return money.Amount{}, err
	}
	if d.Scale() < curr.Scale() {
		d = d.Pad(curr.Scale())
	}
	return money.NewAmountFromDecimal(curr, d)
}

// ZeroAmount returns a zero amount in the given currency, falling back to
// USD when the code does not parse.
func ZeroAmount(code string) money.Amount {
	a, err := money.NewAmount(code, 0, 0)
	if err != nil {
		return money.MustNewAmount("USD", 0, 0)
	}
	return a
}
