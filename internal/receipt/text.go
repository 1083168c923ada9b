// Package receipt renders orders for the shop's 58mm thermal printer and as
// HTML the client turns into a PDF.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

// Width is the character width of a printed line.
const Width = 32

type align int

const (
	alignLeft align = iota
	alignRight
)

var separator = strings.Repeat("=", Width)

type Shop struct {
	Name    string
	Address string
	Phone   string
}

// Text renders o as plain text laid out in Width columns. Dates are shown in loc.
func Text(shop Shop, o *order.Order, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("\n")
	for _, line := range wrapWords(shop.Name, Width) {
		b.WriteString(center(line, Width))
		b.WriteString("\n")
	}
	for _, line := range wrapWords(shop.Address, Width) {
		b.WriteString(center(line, Width))
		b.WriteString("\n")
	}
	b.WriteString(separator)
	b.WriteString("\n")

	header := [][2]string{
		{"Order ID:", fmt.Sprintf("%d", o.OrderNumber)},
		{"Customer:", dash(o.CustomerName)},
		{"No.Telp:", dash(o.Phone)},
		{"Tgl Masuk:", formatDateTime(o.InDate, loc)},
		{"Tgl Keluar:", formatDateTime(o.OutDate, loc)},
	}
	for _, row := range header {
		writeColumns(&b, []int{12, 20}, []align{alignLeft, alignLeft}, row[:])
	}

	b.WriteString(separator)
	b.WriteString("\n")
	b.WriteString("Layanan\n")

	itemCols := []int{3, 17, 12}
	itemAligns := []align{alignLeft, alignLeft, alignRight}
	for _, l := range o.ServiceLines {
		writeColumns(&b, itemCols, itemAligns, []string{"1x", lineLabel(l), pricing.Rupiah(l.UnitPrice)})
		if l.Note != "" {
			b.WriteString("   cat:")
			b.WriteString(l.Note)
			b.WriteString("\n")
		}
	}
	for _, g := range o.GoodsLines {
		writeColumns(&b, itemCols, itemAligns, []string{fmt.Sprintf("%dx", g.Quantity), g.Name, pricing.Rupiah(g.UnitPrice)})
	}

	b.WriteString(separator)
	b.WriteString("\n")

	totalCols := []int{20, 12}
	totalAligns := []align{alignLeft, alignRight}
	if o.Totals.Discount > 0 {
		writeColumns(&b, totalCols, totalAligns, []string{"Diskon", "- " + pricing.Rupiah(o.Totals.Discount)})
	}
	writeColumns(&b, totalCols, totalAligns, []string{"Total", pricing.Rupiah(o.DisplayTotal())})

	b.WriteString("\nPembayaran: ")
	b.WriteString(o.Payment.Label())
	b.WriteString("\n\nTerima kasih!\n\n\n")
	return b.String()
}

func lineLabel(l pricing.ServiceLine) string {
	unit := "kg"
	if l.Unit == pricing.UnitPcs {
		unit = "pcs"
	}
	return l.Quantity.String() + unit + " " + l.Service
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// formatDateTime matches the id-ID locale: "6/5/2024, 10.00.00".
func formatDateTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2/1/2006, 15.04.05")
}

// writeColumns lays texts out in fixed-width columns. A text longer than its
// column continues on the next line, as the printer does.
func writeColumns(b *strings.Builder, widths []int, aligns []align, texts []string) {
	chunks := make([][]string, len(texts))
	rows := 1
	for i, text := range texts {
		chunks[i] = splitRunes(text, widths[i])
		if len(chunks[i]) > rows {
			rows = len(chunks[i])
		}
	}
	for r := 0; r < rows; r++ {
		var line strings.Builder
		for i := range texts {
			var cell string
			if r < len(chunks[i]) {
				cell = chunks[i][r]
			}
			line.WriteString(pad(cell, widths[i], aligns[i]))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
}

func splitRunes(s string, width int) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	return append(out, string(runes))
}

func pad(s string, width int, a align) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	fill := strings.Repeat(" ", width-n)
	if a == alignRight {
		return fill + s
	}
	return s + fill
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// wrapWords breaks s on spaces into lines no wider than width. Words longer
// than width are kept whole.
func wrapWords(s string, width int) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(s) {
		switch {
		case cur == "":
			cur = word
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(word) <= width:
			cur += " " + word
		default:
			lines = append(lines, cur)
			cur = word
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
