package utils

import "fmt"

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// FormatMinorUnits renders an integer amount of minor currency units as a
// display string, e.g. 1250 EUR -> "€12.50". Clients reuse this value as-is
// and never format the total themselves.
func FormatMinorUnits(amount int, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	symbol, ok := currencySymbols[currency]
	if !ok {
		return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, amount/100, amount%100)
}
