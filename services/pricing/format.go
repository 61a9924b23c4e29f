package pricing

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders amount with the symbol of the ISO currency code. Unknown
// codes fall back to "<amount> <code>".
func FormatMoney(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return printer.Sprintf("%.2f", amount)
		}
		return fmt.Sprintf("%s %s", printer.Sprintf("%.2f", amount), code)
	}
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}
