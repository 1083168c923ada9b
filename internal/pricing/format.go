package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Group formats amount with Indonesian thousands separators: 1234567 -> "1.234.567".
func Group(amount int64) string {
	return idPrinter.Sprintf("%d", amount)
}

// Rupiah formats amount as "Rp20.000".
func Rupiah(amount int64) string {
	return "Rp" + Group(amount)
}
