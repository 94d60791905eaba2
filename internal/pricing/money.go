package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyFromDecimal converts a decimal amount into minor units, rounding
// half-up at the cent. Catalog payloads carry prices as JSON numbers.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return d.Shift(2).Round(0).IntPart()
}

// DecimalFromMoney converts minor units back into a decimal amount.
func DecimalFromMoney(m Money) decimal.Decimal {
	return decimal.New(m, -2)
}

// FormatAmount renders minor units as a plain decimal string ("12.50").
func FormatAmount(m Money) string {
	return DecimalFromMoney(m).StringFixed(2)
}

// Symbol returns the display symbol for an ISO 4217 code ("EUR" -> "€").
// Unknown codes fall back to the code itself.
func Symbol(code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code
	}
	return fmt.Sprint(currency.Symbol(unit))
}
