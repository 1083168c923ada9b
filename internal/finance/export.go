package finance

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

// ShopHeader is printed at the top of an exported report.
type ShopHeader struct {
	Name    string
	Address string
	Phone   string
}

var (
	shortDays   = [7]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}
	shortMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
)

// FormatDate renders t like "Sen, 6 Mei 2024".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", shortDays[t.Weekday()], t.Day(), shortMonths[t.Month()-1], t.Year())
}

func reportRupiah(amount int64) string {
	return "Rp " + pricing.Group(amount)
}

func orderRef(n int64) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date":     FormatDate,
	"rupiah":   reportRupiah,
	"orderRef": orderRef,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Laporan {{.Report.Period}}</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; color: #333; }
h1, h2 { text-align: center; margin-bottom: 5px; }
.header { text-align: center; margin-bottom: 20px; }
.header p { margin: 2px; font-size: 14px; }
table { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: 12px; }
th, td { border: 1px solid #ccc; padding: 8px; text-align: left; }
th { background-color: #f0f0f0; }
.section { margin-top: 30px; }
.summary-box { margin-top: 30px; padding: 15px; background-color: #f9f9f9; border: 1px solid #ddd; font-size: 14px; }
.summary-box p { margin: 5px 0; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Shop.Name}}</h1>
<p>{{.Shop.Address}}</p>
{{- if .Shop.Phone}}
<p>Telp: {{.Shop.Phone}}</p>
{{- end}}
<p><strong>Periode:</strong> {{.Report.Period}}</p>
</div>

<div class="section">
<h2>Rincian Pemasukan</h2>
<table>
<thead><tr><th>No</th><th>Tanggal</th><th>No Order</th><th>Nama Pelanggan</th><th>Total</th></tr></thead>
<tbody>
{{- range .Report.IncomeRows}}
<tr><td>{{.No}}</td><td>{{date .Date}}</td><td>{{orderRef .OrderNumber}}</td><td>{{if .Customer}}{{.Customer}}{{else}}{{.Note}}{{end}}</td><td>{{rupiah .Total}}</td></tr>
{{- else}}
<tr><td colspan="5">Tidak ada data pemasukan</td></tr>
{{- end}}
</tbody>
</table>
</div>

<div class="section">
<h2>Rincian Pengeluaran</h2>
<table>
<thead><tr><th>No</th><th>Tanggal</th><th>Kategori</th><th>Deskripsi</th><th>Total</th></tr></thead>
<tbody>
{{- range .Report.ExpenseRows}}
<tr><td>{{.No}}</td><td>{{date .Date}}</td><td>{{if .Category}}{{.Category}}{{else}}-{{end}}</td><td>{{.Note}}</td><td>{{rupiah .Amount}}</td></tr>
{{- else}}
<tr><td colspan="5">Tidak ada data pengeluaran</td></tr>
{{- end}}
</tbody>
</table>
</div>

<div class="summary-box">
<p><strong>Total Pemasukan:</strong> {{rupiah .Report.Income}}</p>
<p><strong>Total Pengeluaran:</strong> {{rupiah .Report.Expense}}</p>
<p><strong>Laba Bersih:</strong> {{rupiah .Report.Profit}}</p>
</div>
</body>
</html>
`))

// RenderHTML writes r as a standalone HTML document the client converts to PDF.
func RenderHTML(w io.Writer, shop ShopHeader, r *Report) error {
	err := reportTemplate.Execute(w, struct {
		Shop   ShopHeader
		Report *Report
	}{shop, r})
	if err != nil {
		return fmt.Errorf("finance: failed to render report: %w", err)
	}
	return nil
}
