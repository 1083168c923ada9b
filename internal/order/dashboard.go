package order

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

// FilterUnpaid selects dashboard entries by payment instead of status.
const FilterUnpaid = "unpaid"

// SortDashboard orders entries by status rank, then unpaid before paid,
// then order number ascending. The sort is stable.
func SortDashboard(orders []DashboardOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
			return ra < rb
		}
		au, bu := a.Payment == pricing.PaymentUnpaid, b.Payment == pricing.PaymentUnpaid
		if au != bu {
			return au
		}
		return a.OrderNumber < b.OrderNumber
	})
}

// FilterDashboard keeps the entries matching filter and search. An empty
// filter or "all" keeps every status; "unpaid" keeps unpaid orders; anything
// else must equal the status. Search matches the customer name
// case-insensitively or any part of the order number.
func FilterDashboard(orders []DashboardOrder, filter, search string) []DashboardOrder {
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]DashboardOrder, 0, len(orders))
	for _, o := range orders {
		if !matchesFilter(o, filter) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.Name), q) &&
			!strings.Contains(strconv.FormatInt(o.OrderNumber, 10), q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesFilter(o DashboardOrder, filter string) bool {
	switch filter {
	case "", "all":
		return true
	case FilterUnpaid:
		return o.Payment == pricing.PaymentUnpaid
	default:
		return string(o.Status) == filter
	}
}

// AttachCountdowns sets the countdown of every entry with a deadline.
func AttachCountdowns(orders []DashboardOrder, now time.Time) {
	for i := range orders {
		if orders[i].Deadline == nil {
			continue
		}
		c := NewCountdown(*orders[i].Deadline, now)
		orders[i].Countdown = &c
	}
}

// SummarizeLine renders a service line for the dashboard card, e.g.
// "Cuci Kering 2 kg × Rp10000 - wangi = Rp20.000".
func SummarizeLine(l pricing.ServiceLine) string {
	var b strings.Builder
	b.WriteString(l.Service)
	b.WriteString(" ")
	b.WriteString(l.Quantity.String())
	if l.Unit == pricing.UnitPcs {
		b.WriteString(" pcs")
	} else {
		b.WriteString(" kg")
	}
	b.WriteString(" × Rp")
	b.WriteString(strconv.FormatInt(l.UnitPrice, 10))
	if l.Note != "" {
		b.WriteString(" - ")
		b.WriteString(l.Note)
	}
	b.WriteString(" = ")
	b.WriteString(pricing.Rupiah(l.Subtotal()))
	return b.String()
}

func summarize(lines []pricing.ServiceLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, SummarizeLine(l))
	}
	return out
}
