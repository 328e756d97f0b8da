package dashboard

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatAmount は金額を米ドル表記（例: $36,714.56）に整形する。
func FormatAmount(amount float64) string {
	if amount < 0 {
		return usd.Sprintf("-$%.2f", -amount)
	}
	return usd.Sprintf("$%.2f", amount)
}
