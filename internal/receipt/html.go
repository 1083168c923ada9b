package receipt

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

var htmlTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"rupiah":  pricing.Rupiah,
	"summary": order.SummarizeLine,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Laundry Order #{{.Order.OrderNumber}}</title></head>
<body style="font-family:Arial;padding:24px;">
<h1>{{.Shop.Name}}</h1>
<p>{{.Shop.Address}}{{if .Shop.Phone}} &middot; {{.Shop.Phone}}{{end}}</p>
<h2>Laundry Order #{{.Order.OrderNumber}}</h2>
<h3>Pelanggan</h3>
<p><b>Nama:</b> {{.Order.CustomerName}}</p>
<p><b>No. WA:</b> {{.Order.Phone}}</p>
<p><b>Tgl Masuk:</b> {{.InDate}}</p>
<p><b>Tgl Keluar:</b> {{.OutDate}}</p>
<h3>Layanan</h3>
{{- range .Order.ServiceLines}}
<p>{{summary .}}</p>
{{- end}}
{{- if .Order.GoodsLines}}
<h3>Barang</h3>
{{- range .Order.GoodsLines}}
<p>{{.Name}} {{.Quantity}} × {{rupiah .UnitPrice}} = {{rupiah .Subtotal}}</p>
{{- end}}
{{- end}}
{{- if gt .Order.Totals.Discount 0}}
<p><b>Diskon:</b> - {{rupiah .Order.Totals.Discount}}</p>
{{- end}}
<h3>Total: {{rupiah .Order.DisplayTotal}}</h3>
<p><b>Metode Pembayaran:</b> {{.Order.Payment.Label}}</p>
</body>
</html>
`))

// HTML writes o as a standalone HTML document.
func HTML(w io.Writer, shop Shop, o *order.Order, loc *time.Location) error {
	err := htmlTemplate.Execute(w, struct {
		Shop    Shop
		Order   *order.Order
		InDate  string
		OutDate string
	}{shop, o, formatDay(o.InDate, loc), formatDay(o.OutDate, loc)})
	if err != nil {
		return fmt.Errorf("receipt: failed to render html: %w", err)
	}
	return nil
}

func formatDay(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2/1/2006")
}
